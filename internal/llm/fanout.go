package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"docintake/internal/analysis"
	"docintake/internal/port"
)

// agreementBoost moves a confidence this fraction of the way to 1.0 when
// several backends report the same datum.
const agreementBoost = 0.2

// FanOutExtractor runs several extractors in parallel and pools their fields.
// Fields keep the source of the backend that produced them so the
// deduplicator can arbitrate between them.
type FanOutExtractor struct {
	extractors []port.FieldExtractor
	names      []string
}

// NewFanOutExtractor creates a FanOutExtractor from extractors and their names.
func NewFanOutExtractor(extractors []port.FieldExtractor, names []string) *FanOutExtractor {
	return &FanOutExtractor{extractors: extractors, names: names}
}

func (m *FanOutExtractor) Extract(ctx context.Context, input port.ExtractInput) (*port.ExtractOutput, error) {
	type result struct {
		output *port.ExtractOutput
		err    error
	}

	results := make([]result, len(m.extractors))
	var wg sync.WaitGroup
	for i, e := range m.extractors {
		wg.Add(1)
		go func(i int, e port.FieldExtractor) {
			defer wg.Done()
			out, err := e.Extract(ctx, input)
			results[i] = result{out, err}
		}(i, e)
	}
	wg.Wait()

	var succeeded []int
	var errs []string
	allRateLimited := true
	var longestWait time.Duration
	for i, r := range results {
		if r.err == nil {
			succeeded = append(succeeded, i)
			continue
		}
		log.Warn().Err(r.err).Str("backend", m.names[i]).Msg("llm.FanOutExtractor: backend failed")
		errs = append(errs, fmt.Sprintf("%s: %v", m.names[i], r.err))
		var rlErr *RateLimitError
		if errors.As(r.err, &rlErr) {
			if rlErr.RetryAfter > longestWait {
				longestWait = rlErr.RetryAfter
			}
		} else {
			allRateLimited = false
		}
	}

	if len(succeeded) == 0 {
		baseErr := fmt.Errorf("all backends failed: %s", strings.Join(errs, "; "))
		if allRateLimited {
			return nil, NewRateLimitError("all", baseErr, int(longestWait.Seconds()))
		}
		return nil, baseErr
	}

	outputs := make([]*port.ExtractOutput, 0, len(succeeded))
	names := make([]string, 0, len(succeeded))
	for _, i := range succeeded {
		outputs = append(outputs, results[i].output)
		names = append(names, m.names[i])
	}
	return mergeOutputs(outputs, names), nil
}

// mergeOutputs pools the fields of several outputs. A datum reported by more
// than one backend has its confidence boosted in every copy and is marked
// "agree" in the provenance map.
func mergeOutputs(outputs []*port.ExtractOutput, names []string) *port.ExtractOutput {
	reporters := make(map[string]map[int]struct{})
	for i, out := range outputs {
		for _, f := range out.Fields {
			ck := analysis.CompositeKey(f)
			if reporters[ck] == nil {
				reporters[ck] = make(map[int]struct{})
			}
			reporters[ck][i] = struct{}{}
		}
	}

	merged := &port.ExtractOutput{FieldProvenance: make(map[string]string)}
	var models []string
	for i, out := range outputs {
		if out.ModelUsed != "" {
			models = append(models, out.ModelUsed)
		}
		if merged.SuggestedType == "" {
			merged.SuggestedType = out.SuggestedType
		}
		for _, f := range out.Fields {
			if len(reporters[analysis.CompositeKey(f)]) > 1 {
				f.Confidence = boost(f.Confidence)
				merged.FieldProvenance[f.Key] = "agree"
			} else if _, seen := merged.FieldProvenance[f.Key]; !seen {
				merged.FieldProvenance[f.Key] = names[i]
			}
			merged.Fields = append(merged.Fields, f)
		}
	}
	merged.ModelUsed = strings.Join(models, "+")
	if len(outputs) == 1 {
		merged.FieldProvenance["_source"] = names[0] + "_only"
	}
	return merged
}

func boost(conf float64) float64 {
	if conf >= 1.0 {
		return 1.0
	}
	boosted := conf + (1.0-conf)*agreementBoost
	if boosted > 1.0 {
		boosted = 1.0
	}
	return boosted
}
