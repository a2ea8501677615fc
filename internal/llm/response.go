package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"docintake/internal/domain"
	"docintake/internal/port"
)

// defaultFieldConfidence is assigned when a provider omits a confidence.
const defaultFieldConfidence = 0.5

type rawOutput struct {
	DocumentType string `json:"document_type"`
	Fields       []struct {
		Key        string          `json:"key"`
		Value      json.RawMessage `json:"value"`
		Confidence *float64        `json:"confidence"`
	} `json:"fields"`
}

// DecodeOutput turns a provider's text completion into fields attributed to source.
func DecodeOutput(text, model string, source domain.FieldSource) (*port.ExtractOutput, error) {
	body := stripFences(text)
	if err := ValidateOutput([]byte(body)); err != nil {
		return nil, fmt.Errorf("parsing LLM JSON output: %w (raw: %s)", err, truncate(text, 500))
	}

	var raw rawOutput
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return nil, fmt.Errorf("parsing LLM JSON output: %w (raw: %s)", err, truncate(text, 500))
	}

	out := &port.ExtractOutput{ModelUsed: model}
	if t, err := domain.ParseDocumentType(raw.DocumentType); err == nil {
		out.SuggestedType = t
	}

	for _, rf := range raw.Fields {
		key := strings.TrimSpace(rf.Key)
		value, ok := fieldValue(rf.Value)
		if key == "" || !ok {
			continue
		}
		conf := defaultFieldConfidence
		if rf.Confidence != nil {
			conf = *rf.Confidence
		}
		out.Fields = append(out.Fields, domain.NewField(key, value, conf, source))
	}
	return out, nil
}

// fieldValue renders a JSON value as a field value. Strings are unquoted;
// numbers, booleans, arrays and objects keep their compact JSON text.
func fieldValue(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		s = strings.TrimSpace(s)
		return s, s != ""
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", false
	}
	return buf.String(), true
}

// stripFences removes markdown code fences and any prose around the JSON object.
func stripFences(text string) string {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)
	if start, end := strings.Index(s, "{"), strings.LastIndex(s, "}"); start > 0 && end > start {
		s = s[start : end+1]
	}
	return s
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
