package review

import (
	"fmt"
	"strings"

	"smellcheck/internal/util/jsonutil"
)

// Prompt wording is part of the contract with the normalizer: the schema and
// severity scale below are exactly what NormalizeAnalysis repairs against.
const analysisPromptHeader = `You are a senior engineer reviewing code for quality problems ("code smells").

Task:
Analyze the code below and return STRICT JSON with exactly this shape:
{
  "summary":         "string",   // one or two sentences on overall code health
  "smells": [
    {
      "name":        "string",   // short smell name, e.g. "Long Parameter List"
      "severity":    "string",   // one of: Critical, Major, Minor
      "location":    "string",   // where it occurs (line, function, block)
      "explanation": "string"    // why it is a problem here
    }
  ],
  "refactored_code": "string"    // the complete refactored source, not a diff
}

Rules:
- severity must be exactly one of: Critical, Major, Minor.
- Respond with raw JSON only; no markdown fences, no commentary around it.
- If the code is clean, return an empty smells array.
- Keep explanations short and concrete.
`

const followUpPromptHeader = `You are continuing a code review conversation.

The user previously submitted code, received the analysis below, and now has
a follow-up question. Answer it.

Rules:
- Reply conversationally in plain text.
- Do NOT return JSON and do NOT repeat the full analysis.
- Refer to the analysis and the original code where it helps.
`

// BuildAnalysisPrompt renders the analysis request for one piece of code.
// Pure and total: empty code or language render as-is. An empty or "auto"
// language asks the model to detect it.
func BuildAnalysisPrompt(code, language string) string {
	var b strings.Builder
	b.WriteString(analysisPromptHeader)
	b.WriteString("\n")
	if lang := strings.TrimSpace(language); lang != "" && !strings.EqualFold(lang, "auto") {
		fmt.Fprintf(&b, "Language: %s\n", lang)
	} else {
		b.WriteString("Language: detect it from the code.\n")
	}
	b.WriteString("\nCode:\n")
	b.WriteString(code)
	return b.String()
}

// BuildFollowUpPrompt renders a follow-up question against a prior result.
// The result is embedded as JSON without HTML escaping so code snippets
// inside it survive verbatim.
func BuildFollowUpPrompt(question, originalCode string, result AnalysisResult) string {
	resultJSON, err := jsonutil.MarshalNoEscape(result)
	if err != nil {
		resultJSON = []byte("{}")
	}
	var b strings.Builder
	b.WriteString(followUpPromptHeader)
	b.WriteString("\nAnalysis (JSON):\n")
	b.Write(resultJSON)
	b.WriteString("\n\nOriginal code:\n")
	b.WriteString(originalCode)
	b.WriteString("\n\nQuestion:\n")
	b.WriteString(question)
	return b.String()
}
