package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"docintake/internal/analysis"
	"docintake/internal/domain"
)

// fieldInput is the on-disk shape of a field list.
type fieldInput struct {
	Key        string   `json:"key"`
	Value      string   `json:"value"`
	Confidence *float64 `json:"confidence"`
	Source     string   `json:"source"`
}

type pipelineOptions struct {
	hint       string
	fieldsPath string
	pretty     bool
}

func newAnalyzeCmd() *cobra.Command {
	var opts pipelineOptions
	cmd := &cobra.Command{
		Use:   "analyze [text-file]",
		Short: "Classify a document and extract deduplicated fields",
		Example: `  docctl analyze card.txt
  docctl analyze card.txt --fields vision.json --hint credit_card
  cat letter.txt | docctl analyze -`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			fields, err := loadFieldsFile(opts.fieldsPath)
			if err != nil {
				return err
			}
			hint, err := parseHint(opts.hint)
			if err != nil {
				return err
			}
			analyzer := analysis.NewAnalyzer(analysis.AnalyzerConfig{})
			result := analyzer.Analyze(text, fields, hint)
			log.Debug().Str("document_type", string(result.Classification.Type)).Int("fields", len(result.Fields)).
				Msg("docctl.analyze: done")
			return writeJSON(cmd.OutOrStdout(), result, opts.pretty)
		},
	}
	addPipelineFlags(cmd, &opts)
	return cmd
}

func newClassifyCmd() *cobra.Command {
	var opts pipelineOptions
	cmd := &cobra.Command{
		Use:   "classify [text-file]",
		Short: "Classify a document and print the signals that fired",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			fields, err := loadFieldsFile(opts.fieldsPath)
			if err != nil {
				return err
			}
			hint, err := parseHint(opts.hint)
			if err != nil {
				return err
			}
			c := analysis.NewClassifier()
			result := c.ClassifyDetailed(text, fields, hint, domain.DocumentTypeGeneric)
			return writeJSON(cmd.OutOrStdout(), result, opts.pretty)
		},
	}
	addPipelineFlags(cmd, &opts)
	return cmd
}

func newDedupCmd() *cobra.Command {
	var pretty bool
	cmd := &cobra.Command{
		Use:   "dedup [fields-json]",
		Short: "Collapse a JSON field list to one field per normalized key and value",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			fields, err := decodeFields(strings.NewReader(raw))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), analysis.Deduplicate(fields), pretty)
		},
	}
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Indent JSON output")
	return cmd
}

func addPipelineFlags(cmd *cobra.Command, opts *pipelineOptions) {
	cmd.Flags().StringVar(&opts.hint, "hint", "", "Document type to use when no rule matches")
	cmd.Flags().StringVar(&opts.fieldsPath, "fields", "", "JSON file with structured fields from a vision pass")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "Indent JSON output")
}

func readInput(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", args[0], err)
	}
	return string(b), nil
}

func loadFieldsFile(path string) ([]domain.Field, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening fields file: %w", err)
	}
	defer f.Close()
	return decodeFields(f)
}

// decodeFields reads a JSON array of fields. Missing confidence defaults to 1
// and missing source to vision.
func decodeFields(r io.Reader) ([]domain.Field, error) {
	var in []fieldInput
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return nil, fmt.Errorf("decoding fields: %w", err)
	}
	fields := make([]domain.Field, 0, len(in))
	for i, fi := range in {
		conf := 1.0
		if fi.Confidence != nil {
			conf = *fi.Confidence
		}
		source := domain.FieldSourceVision
		if fi.Source != "" {
			source = domain.FieldSource(fi.Source)
		}
		f := domain.NewField(fi.Key, fi.Value, conf, source)
		if err := f.Validate(); err != nil {
			return nil, fmt.Errorf("fields[%d]: %w", i, err)
		}
		fields = append(fields, f)
	}
	return fields, nil
}

func parseHint(s string) (*domain.DocumentType, error) {
	if s == "" {
		return nil, nil
	}
	t, err := domain.ParseDocumentType(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func writeJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
