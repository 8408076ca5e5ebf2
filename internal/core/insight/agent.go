package insight

import (
	"context"
	"fmt"
	"strings"

	"github.com/datapilot-labs/kpi-dashboard-agent/internal/core/dataset"
	"github.com/datapilot-labs/kpi-dashboard-agent/internal/core/kpi"
	"github.com/datapilot-labs/kpi-dashboard-agent/internal/core/llm"
	"github.com/datapilot-labs/kpi-dashboard-agent/internal/shared/utils"
)

const (
	defaultTrendWindow = 3
	defaultZThreshold  = 3.0

	// Only the top values per categorical column reach the prompt; the
	// full distribution stays in the Bundle.
	promptTopValues = 5
)

// Bundle carries everything the analysis produced for one KPI: raw
// statistical artifacts for export plus the model-written summary for
// display. A failed analysis still returns a Bundle whose Summary
// explains the failure.
type Bundle struct {
	KPIName            string             `json:"kpi_name"`
	DescriptiveStats   []FieldStats       `json:"descriptive_stats,omitempty"`
	CategoricalSummary []CategoricalField `json:"categorical_summary,omitempty"`
	Trends             []Trend            `json:"trends,omitempty"`
	Correlation        *CorrMatrix        `json:"correlation_matrix,omitempty"`
	Anomalies          map[string][]int   `json:"anomalies,omitempty"`
	Clusters           map[int][]int      `json:"clusters,omitempty"`
	Summary            string             `json:"summary"`
}

// Agent computes statistics over retrieved KPI data and asks the model to
// narrate them.
type Agent struct {
	llm *llm.Service

	// DatetimeColumn enables trend detection when it names a column of
	// the retrieved data. Empty disables trends.
	DatetimeColumn string

	// Window is the rolling-mean width for trend detection.
	Window int

	// ZThreshold is the anomaly cutoff in population z-score units.
	ZThreshold float64

	// ClusterCount enables k-means segmentation when positive.
	ClusterCount int
}

func NewAgent(svc *llm.Service, datetimeCol string) *Agent {
	return &Agent{
		llm:            svc,
		DatetimeColumn: datetimeCol,
		Window:         defaultTrendWindow,
		ZThreshold:     defaultZThreshold,
	}
}

const insightSystemPrompt = "You are a data analyst assistant."

// GenerateForKPI runs the full statistical pass for one KPI and asks the
// model for a narrative summary. It never returns an error: an empty
// table or a failed model call degrades to a Bundle whose Summary states
// what happened, so one KPI cannot sink the whole dashboard.
func (a *Agent) GenerateForKPI(ctx context.Context, k kpi.KPI, table *dataset.Table) Bundle {
	name := k.Name
	if name == "" {
		name = "Unknown"
	}

	if table == nil || table.Empty() {
		return Bundle{
			KPIName: name,
			Summary: fmt.Sprintf("No data available to generate insights for KPI '%s'.", name),
		}
	}

	b := Bundle{
		KPIName:            name,
		DescriptiveStats:   Describe(table),
		CategoricalSummary: CategoricalSummary(table),
		Correlation:        Correlation(table),
		Anomalies:          DetectAnomalies(table, a.ZThreshold),
	}

	if a.DatetimeColumn != "" && table.ColumnIndex(a.DatetimeColumn) >= 0 {
		for _, col := range table.NumericColumns() {
			if trend := DetectTrend(table, a.DatetimeColumn, col, a.Window); trend != nil {
				b.Trends = append(b.Trends, *trend)
			}
		}
	}

	if a.ClusterCount > 0 {
		b.Clusters = DetectClusters(table, a.ClusterCount)
	}

	summary, err := a.llm.GenerateResponse(ctx, insightSystemPrompt, a.buildPrompt(k, b))
	if err != nil {
		utils.LogError("Insight generation call failed", err, map[string]interface{}{
			"kpi": name,
		})
		return Bundle{
			KPIName: name,
			Summary: fmt.Sprintf("Failed to generate insights for KPI '%s': %v", name, err),
		}
	}
	b.Summary = strings.TrimSpace(summary)
	return b
}

func (a *Agent) buildPrompt(k kpi.KPI, b Bundle) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Given the KPI named '%s' with description:\n", b.KPIName))
	sb.WriteString(fmt.Sprintf("%q\n\n", k.Description))
	sb.WriteString("And the following descriptive statistics on relevant numeric fields:\n")
	sb.WriteString(renderStats(b.DescriptiveStats))
	sb.WriteString("\n\nThe following trends have been detected over time:\n")
	sb.WriteString(renderTrends(b.Trends))
	sb.WriteString("\n\nAnd here is the correlation matrix among numeric features:\n")
	sb.WriteString(renderCorrelation(b.Correlation))
	sb.WriteString("\n\nAdditionally, here are some key categorical data distributions:\n")
	sb.WriteString(renderCategorical(b.CategoricalSummary))
	sb.WriteString("\n\nGenerate a concise and clear natural-language summary of insights and potential recommendations related to this KPI, highlighting key statistics, trends, correlations, categorical distributions, and any notable observations.\n")
	sb.WriteString("Respond ONLY with the summary text.\n")

	return sb.String()
}

func renderStats(stats []FieldStats) string {
	if len(stats) == 0 {
		return "No numeric data available."
	}
	var sb strings.Builder
	sb.WriteString("field | mean | median | min | max")
	for _, s := range stats {
		sb.WriteString(fmt.Sprintf("\n%s | %.4f | %.4f | %.4f | %.4f", s.Field, s.Mean, s.Median, s.Min, s.Max))
	}
	return sb.String()
}

func renderTrends(trends []Trend) string {
	if len(trends) == 0 {
		return "No significant trends detected."
	}
	lines := make([]string, len(trends))
	for i, t := range trends {
		lines[i] = fmt.Sprintf("- Field '%s' shows a %s trend (slope: %.4f)", t.Field, t.Trend, t.Slope)
	}
	return strings.Join(lines, "\n")
}

func renderCorrelation(m *CorrMatrix) string {
	if m == nil || len(m.Fields) == 0 {
		return "No correlation data available."
	}
	var sb strings.Builder
	sb.WriteString(strings.Join(m.Fields, " | "))
	for i, field := range m.Fields {
		sb.WriteString(fmt.Sprintf("\n%s:", field))
		for j := range m.Fields {
			sb.WriteString(fmt.Sprintf(" %.2f", m.Values[i][j]))
		}
	}
	return sb.String()
}

func renderCategorical(cats []CategoricalField) string {
	if len(cats) == 0 {
		return "No categorical data available."
	}
	var sb strings.Builder
	for _, c := range cats {
		sb.WriteString(fmt.Sprintf("\nCategorical distribution for '%s':\n", c.Field))
		top := c.Counts
		if len(top) > promptTopValues {
			top = top[:promptTopValues]
		}
		for _, vc := range top {
			sb.WriteString(fmt.Sprintf(" - %s: %d records\n", vc.Value, vc.Count))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

const summarySystemPrompt = "You are a senior data analyst."

// KPISummary is one (KPI, insight text) pair in dashboard order.
type KPISummary struct {
	Name    string
	Summary string
}

// FinalSummary asks the model to synthesize a bullet-point overview
// across all per-KPI insight summaries.
func (a *Agent) FinalSummary(ctx context.Context, summaries []KPISummary) (string, error) {
	blocks := make([]string, len(summaries))
	for i, s := range summaries {
		blocks[i] = fmt.Sprintf("KPI: %s\nInsight:\n%s", s.Name, s.Summary)
	}

	var sb strings.Builder
	sb.WriteString("Given the following individual KPI insights summaries:\n\n")
	sb.WriteString(strings.Join(blocks, "\n\n"))
	sb.WriteString("\n\nGenerate a concise, bullet-point list summarizing the key overall insights across all KPIs.\n")
	sb.WriteString("Highlight the most important findings, patterns, and actionable recommendations.\n")
	sb.WriteString("Respond ONLY with the bullet-point summary.\n")

	text, err := a.llm.GenerateResponse(ctx, summarySystemPrompt, sb.String())
	if err != nil {
		return "", fmt.Errorf("final summary call failed: %w", err)
	}
	return strings.TrimSpace(text), nil
}
