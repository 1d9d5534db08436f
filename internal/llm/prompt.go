package llm

import "fmt"

// BuildPrompt creates the lookup instruction for a company name. It is a
// pure function: same input, same prompt, no validation. Empty names are
// rejected upstream by the orchestrator.
//
// The prompt embeds an explicit JSON schema example and a "JSON only"
// directive. Providers don't reliably honor the directive — that's what the
// tolerant extraction in extract.go is for.
func BuildPrompt(company string) string {
	return fmt.Sprintf(`Provide information about the company "%s" in JSON format.

Return ONLY a JSON object with exactly this structure, no other text:
{
  "name": "official company name",
  "headquarters": "city, country of the headquarters",
  "founded": "founding year",
  "businessRegions": ["regions where the company operates"],
  "mainMarkets": ["the company's main markets"],
  "additionalInfo": "one or two sentences describing the company"
}

If a value is unknown, use "Unknown". Do not wrap the JSON in markdown or add any explanation.`, company)
}
