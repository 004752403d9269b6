package review

import (
	"encoding/json"
	"fmt"
	"strings"

	"smellcheck/internal/util/jsonutil"
)

// NormalizeAnalysis coerces raw model output into an AnalysisResult. The
// input is untrusted free text, so every field is repaired independently:
// a payload that is a JSON object at all always yields a usable result.
// The only failure mode is ErrParse, for text that is not a JSON object even
// after fence stripping and one unwrap of a double-encoded payload.
//
// fallbackCode fills refactored_code when the model omits it or leaves it
// empty; callers pass the code that was analyzed.
func NormalizeAnalysis(raw, fallbackCode string) (AnalysisResult, error) {
	text := stripFence(raw)
	payload := jsonutil.UnwrapQuoted([]byte(text))

	var obj map[string]any
	if err := json.Unmarshal(payload, &obj); err != nil {
		return AnalysisResult{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if obj == nil {
		return AnalysisResult{}, fmt.Errorf("%w: payload is null", ErrParse)
	}

	out := AnalysisResult{Smells: []Smell{}}
	if summary, ok := obj["summary"].(string); ok {
		out.Summary = summary
	}
	if arr, ok := obj["smells"].([]any); ok {
		out.Smells = make([]Smell, 0, len(arr))
		for _, elem := range arr {
			fields, ok := elem.(map[string]any)
			if !ok {
				// Not an object: drop it rather than invent a finding.
				continue
			}
			out.Smells = append(out.Smells, repairSmell(fields))
		}
	}
	if code, ok := obj["refactored_code"].(string); ok && code != "" {
		out.RefactoredCode = code
	} else {
		out.RefactoredCode = fallbackCode
	}
	return out, nil
}

// repairSmell fills defaults per missing or mistyped field. A present field
// of the right type is kept verbatim, even when empty.
func repairSmell(fields map[string]any) Smell {
	s := Smell{Name: "Unknown Smell", Severity: SeverityMinor}
	if v, ok := fields["name"].(string); ok {
		s.Name = v
	}
	if v, ok := fields["severity"].(string); ok {
		s.Severity = ParseSeverity(v)
	}
	if v, ok := fields["location"].(string); ok {
		s.Location = v
	}
	if v, ok := fields["explanation"].(string); ok {
		s.Explanation = v
	}
	return s
}

// stripFence removes one optional leading/trailing markdown code fence.
// Models wrap JSON in ```json fences often enough that this is the first
// repair step, before any parsing.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[i+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
