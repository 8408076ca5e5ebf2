package viz

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/datapilot-labs/kpi-dashboard-agent/internal/core/dataset"
	"github.com/datapilot-labs/kpi-dashboard-agent/internal/core/kpi"
	"github.com/datapilot-labs/kpi-dashboard-agent/internal/core/llm"
	"github.com/datapilot-labs/kpi-dashboard-agent/internal/shared/utils"
)

const (
	// sampleRows is how many data rows the chart-generation prompt sees.
	sampleRows = 10

	// maxBoundRows caps how many rows get embedded into the rendered
	// chart option, keeping the dashboard page a sane size.
	maxBoundRows = 500

	// dataPlaceholder is the token the model must put in dataset.source;
	// the real rows are bound in after parsing.
	dataPlaceholder = "__KPI_DATA__"
)

// ChartSpec is one chart suggestion from the first model round.
type ChartSpec struct {
	ChartType string `json:"chart_type"`
	XAxis     string `json:"x_axis"`
	YAxis     string `json:"y_axis"`
	Title     string `json:"title"`
	Color     string `json:"color,omitempty"`
}

// Chart is a renderable visualization: a validated ECharts option with
// the KPI's rows already bound into its dataset.
type Chart struct {
	ID     string
	Title  string
	Option map[string]interface{}
}

// OptionJSON renders the bound option for embedding in a page script.
func (c *Chart) OptionJSON() (string, error) {
	raw, err := json.Marshal(c.Option)
	if err != nil {
		return "", fmt.Errorf("marshal chart option: %w", err)
	}
	return string(raw), nil
}

// Agent turns KPI insights into charts in two model rounds: chart-type
// suggestion, then option generation. The model only ever produces
// declarative chart configuration; nothing it returns is executed.
type Agent struct {
	llm *llm.Service
}

func NewAgent(svc *llm.Service) *Agent {
	return &Agent{llm: svc}
}

const vizSystemPrompt = "You are a data visualization expert."

// SuggestCharts asks for chart specs as JSON. A single JSON object is
// normalized to a one-element list. Unparseable output is logged and
// yields nil, never an error.
func (a *Agent) SuggestCharts(ctx context.Context, k kpi.KPI, insightSummary string) []ChartSpec {
	prompt := buildSuggestPrompt(k, insightSummary)

	text, err := a.llm.GenerateResponse(ctx, vizSystemPrompt, prompt)
	if err != nil {
		utils.LogError("Chart suggestion call failed", err, map[string]interface{}{
			"kpi": k.Name,
		})
		return nil
	}
	return parseSuggestions(text, k.Name)
}

// parseSuggestions accepts either a JSON array of specs or a bare spec
// object.
func parseSuggestions(text, kpiName string) []ChartSpec {
	trimmed := llm.StripFences(strings.TrimSpace(text))

	var specs []ChartSpec
	if err := json.Unmarshal([]byte(trimmed), &specs); err == nil {
		return specs
	}

	var single ChartSpec
	if err := json.Unmarshal([]byte(trimmed), &single); err == nil {
		return []ChartSpec{single}
	}

	utils.LogWarn("Failed to parse chart suggestion JSON", map[string]interface{}{
		"kpi": kpiName,
		"raw": trimmed,
	})
	return nil
}

// GenerateChart asks the model for a complete ECharts option matching the
// chosen spec, validates it, and binds the KPI's rows into its dataset.
// Any failure is logged and returns nil.
func (a *Agent) GenerateChart(ctx context.Context, k kpi.KPI, insightSummary string, spec ChartSpec, table *dataset.Table) *Chart {
	prompt := buildChartPrompt(k, insightSummary, spec, table)

	text, err := a.llm.GenerateResponse(ctx, vizSystemPrompt, prompt)
	if err != nil {
		utils.LogError("Chart generation call failed", err, map[string]interface{}{
			"kpi": k.Name,
		})
		return nil
	}

	cleaned := llm.StripFences(strings.TrimSpace(text))
	var option map[string]interface{}
	if err := json.Unmarshal([]byte(cleaned), &option); err != nil {
		utils.LogWarn("Failed to parse chart option JSON", map[string]interface{}{
			"kpi": k.Name,
			"raw": cleaned,
		})
		return nil
	}
	if err := validateOption(option); err != nil {
		utils.LogWarn("Rejected invalid chart option", map[string]interface{}{
			"kpi":    k.Name,
			"reason": err.Error(),
		})
		return nil
	}

	bindData(option, table)

	title := spec.Title
	if title == "" {
		title = k.Name
	}
	return &Chart{
		ID:     uuid.NewString(),
		Title:  title,
		Option: option,
	}
}

// CreateVisualization runs both rounds for one KPI. Only the first
// suggestion is rendered; a nil return means the KPI card shows its
// insight text without a chart.
func (a *Agent) CreateVisualization(ctx context.Context, k kpi.KPI, insightSummary string, table *dataset.Table) *Chart {
	specs := a.SuggestCharts(ctx, k, insightSummary)
	if len(specs) == 0 {
		utils.LogWarn("No chart suggestions from LLM; skipping visualization", map[string]interface{}{
			"kpi": k.Name,
		})
		return nil
	}
	return a.GenerateChart(ctx, k, insightSummary, specs[0], table)
}

// validateOption enforces the minimal shape of a usable ECharts option:
// a non-empty "series" array.
func validateOption(option map[string]interface{}) error {
	raw, ok := option["series"]
	if !ok {
		return fmt.Errorf("option has no series")
	}
	series, ok := raw.([]interface{})
	if !ok || len(series) == 0 {
		return fmt.Errorf("option series is empty")
	}
	return nil
}

// bindData replaces the dataset.source placeholder with the KPI's actual
// records, capped at maxBoundRows. If the model wrote no dataset block,
// one is added so the series' encode mappings still resolve.
func bindData(option map[string]interface{}, table *dataset.Table) {
	records := table.Records()
	if len(records) > maxBoundRows {
		records = records[:maxBoundRows]
	}
	source := make([]interface{}, len(records))
	for i, r := range records {
		source[i] = r
	}

	ds, ok := option["dataset"].(map[string]interface{})
	if !ok {
		ds = map[string]interface{}{}
		option["dataset"] = ds
	}
	ds["source"] = source
}

func buildSuggestPrompt(k kpi.KPI, insightSummary string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Given the KPI named %q with description:\n", k.Name))
	sb.WriteString(fmt.Sprintf("%q\n\n", k.Description))
	sb.WriteString("And the following insights related to this KPI:\n")
	sb.WriteString(fmt.Sprintf("%q\n\n", insightSummary))
	sb.WriteString("Please suggest the best chart type(s) to visualize this KPI's data.\n")
	sb.WriteString("For each suggested chart, provide a JSON object with keys:\n")
	sb.WriteString("- chart_type (e.g., bar, line, pie, scatter)\n")
	sb.WriteString("- x_axis (column name for x axis)\n")
	sb.WriteString("- y_axis (column name for y axis, if applicable)\n")
	sb.WriteString("- title (a concise chart title)\n")
	sb.WriteString("- color (optional, column to color/group by)\n")
	sb.WriteString("Select charts based on understandability, presentability and suitability.\n")
	sb.WriteString("If multiple charts are suitable, return a JSON list of such objects.\n")
	sb.WriteString("Respond with ONLY the JSON.\n")

	return sb.String()
}

func buildChartPrompt(k kpi.KPI, insightSummary string, spec ChartSpec, table *dataset.Table) string {
	sample, _ := json.Marshal(table.Head(sampleRows).Records())

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Given the KPI named %q with description:\n", k.Name))
	sb.WriteString(fmt.Sprintf("%q\n\n", k.Description))
	sb.WriteString("And the following insights:\n")
	sb.WriteString(fmt.Sprintf("%q\n\n", insightSummary))
	sb.WriteString("Here is a sample of the KPI data (as a JSON list of records):\n")
	sb.Write(sample)
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("Create a %s chart titled %q", spec.ChartType, spec.Title))
	if spec.XAxis != "" {
		sb.WriteString(fmt.Sprintf(" with %q on the x axis", spec.XAxis))
	}
	if spec.YAxis != "" {
		sb.WriteString(fmt.Sprintf(" and %q on the y axis", spec.YAxis))
	}
	if spec.Color != "" {
		sb.WriteString(fmt.Sprintf(", grouped by color on %q", spec.Color))
	}
	sb.WriteString(".\n\n")
	sb.WriteString("Respond with a complete Apache ECharts option as a single JSON object.\n")
	sb.WriteString(fmt.Sprintf("- Use a \"dataset\" with \"source\" set to the exact string %q; the real data will be substituted in.\n", dataPlaceholder))
	sb.WriteString("- Reference columns via \"encode\" mappings in each series.\n")
	sb.WriteString("- Include meaningful titles, axis labels, and tooltips.\n")
	sb.WriteString("- Make the chart visually attractive.\n")
	sb.WriteString("- Do not include any explanation, only the JSON object.\n")

	return sb.String()
}
