package kpi

import (
	"context"
	"fmt"
	"strings"

	"github.com/datapilot-labs/kpi-dashboard-agent/internal/core/llm"
	"github.com/datapilot-labs/kpi-dashboard-agent/internal/core/schema"
	"github.com/datapilot-labs/kpi-dashboard-agent/internal/shared/utils"
)

// KPI is one proposed key performance indicator.
type KPI struct {
	Name        string   `json:"KPI"`
	Description string   `json:"Description"`
	Fields      []string `json:"Fields"`
}

// Proposer asks the model for KPIs matching the dataset schema and the
// analyst's goal.
type Proposer struct {
	llm *llm.Service
}

func NewProposer(svc *llm.Service) *Proposer {
	return &Proposer{llm: svc}
}

const proposerSystemPrompt = "You are an expert analytics assistant."

// Suggest sends one prompt and strictly parses the response as a JSON
// array of KPI records. A malformed response is logged with the raw text
// and yields an empty list; "no KPIs" is a valid terminal outcome for the
// caller, not an error.
func (p *Proposer) Suggest(ctx context.Context, summary schema.Summary, userQuery string) ([]KPI, error) {
	prompt := buildPrompt(summary, userQuery)

	text, err := p.llm.GenerateResponse(ctx, proposerSystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("kpi suggestion call failed: %w", err)
	}

	var kpis []KPI
	if raw, ok := llm.DecodeJSON(strings.TrimSpace(text), &kpis); !ok {
		utils.LogWarn("Failed to parse KPI JSON from LLM response", map[string]interface{}{
			"raw": raw,
		})
		return nil, nil
	}

	return filterFields(kpis, summary), nil
}

// filterFields drops proposed field names that do not exist in the schema
// so hallucinated columns never reach the SQL-generation prompt. The KPI
// itself is kept.
func filterFields(kpis []KPI, summary schema.Summary) []KPI {
	for i := range kpis {
		kept := kpis[i].Fields[:0]
		for _, f := range kpis[i].Fields {
			if summary.Contains(f) {
				kept = append(kept, f)
				continue
			}
			utils.LogWarn("Dropping unknown field from KPI proposal", map[string]interface{}{
				"kpi":   kpis[i].Name,
				"field": f,
			})
		}
		kpis[i].Fields = kept
	}
	return kpis
}

func buildPrompt(summary schema.Summary, userQuery string) string {
	var sb strings.Builder

	sb.WriteString("Given the dataset schema below:\n\n")
	sb.WriteString(formatSchema(summary))
	sb.WriteString("\n\nAnd the user query:\n\n")
	sb.WriteString(fmt.Sprintf("%q\n\n", userQuery))
	sb.WriteString("Please suggest a list of KPIs that address the user's business goals.\n")
	sb.WriteString("Also suggest necessary descriptive statistics to help the user understand the data and see the full picture of the situation.\n")
	sb.WriteString("Choose KPIs that are aligned with strategic goals, measurable with available data, actionable, clearly defined, and free from unintended negative incentives.\n\n")
	sb.WriteString("For each KPI (key performance indicator), provide the following fields in JSON array format:\n")
	sb.WriteString("- \"KPI\": the KPI name as a string\n")
	sb.WriteString("- \"Description\": a brief explanation or formula of the KPI\n")
	sb.WriteString("- \"Fields\": a list of the related schema fields used to compute this KPI\n\n")
	sb.WriteString("Example response:\n\n")
	sb.WriteString(`[
  {
    "KPI": "Total Sales",
    "Description": "Sum of sales amount over the period",
    "Fields": ["sales_amount"]
  },
  {
    "KPI": "Customer Count",
    "Description": "Number of unique customers",
    "Fields": ["customer_id"]
  }
]
`)
	sb.WriteString("\nYour response must be ONLY a valid JSON array matching the example format.\n")
	sb.WriteString("Do not include markdown fences or any text outside the JSON.\n")

	return sb.String()
}

// formatSchema renders the role-grouped field listing used in the prompt.
func formatSchema(summary schema.Summary) string {
	var sb strings.Builder
	groups := []struct {
		label  string
		fields []string
	}{
		{"Identifiers", summary.Identifiers},
		{"Metrics", summary.Metrics},
		{"Dimensions", summary.Dimensions},
	}
	for _, g := range groups {
		if len(g.fields) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("%s fields:\n", g.label))
		for _, f := range g.fields {
			sb.WriteString(fmt.Sprintf(" - %s\n", f))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
