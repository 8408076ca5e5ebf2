package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/datapilot-labs/kpi-dashboard-agent/internal/core/dataset"
	"github.com/datapilot-labs/kpi-dashboard-agent/internal/core/kpi"
	"github.com/datapilot-labs/kpi-dashboard-agent/internal/core/llm"
	"github.com/datapilot-labs/kpi-dashboard-agent/internal/core/schema"
	"github.com/datapilot-labs/kpi-dashboard-agent/internal/shared/utils"
)

// Result pairs a KPI name with its retrieved data. A KPI whose SQL could
// not be generated or executed carries an empty table, never an error:
// one KPI's failure must not block the rest of the batch.
type Result struct {
	KPIName string
	Table   *dataset.Table
}

// Agent generates a SQL statement per KPI via the model and executes it
// against the session store.
type Agent struct {
	llm     *llm.Service
	store   *dataset.SessionStore
	summary schema.Summary
}

func NewAgent(svc *llm.Service, store *dataset.SessionStore, summary schema.Summary) *Agent {
	return &Agent{llm: svc, store: store, summary: summary}
}

const retrievalSystemPrompt = "You are a skilled data engineer."

// GenerateSQL asks the model for a single SQL statement answering the KPI.
func (a *Agent) GenerateSQL(ctx context.Context, k kpi.KPI) (string, error) {
	prompt := a.buildPrompt(k)
	text, err := a.llm.GenerateResponse(ctx, retrievalSystemPrompt, prompt)
	if err != nil {
		return "", fmt.Errorf("sql generation call failed: %w", err)
	}
	return CleanSQL(text), nil
}

// CleanSQL strips a leading/trailing markdown fence (case-insensitive
// "sql" tag) from a generated statement.
func CleanSQL(text string) string {
	return llm.StripFences(text)
}

// GetDataForKPI generates and executes the SQL for one KPI.
func (a *Agent) GetDataForKPI(ctx context.Context, k kpi.KPI) (*dataset.Table, error) {
	query, err := a.GenerateSQL(ctx, k)
	if err != nil {
		return nil, err
	}
	utils.LogInfo("Generated SQL for KPI", map[string]interface{}{
		"kpi": k.Name,
		"sql": query,
	})
	return a.store.Query(ctx, query)
}

// RetrieveAll lazily yields one Result per KPI, in KPI order. Each element
// catches its own failures and degrades to an empty table, so consumers
// can range the channel without error handling per element. Re-iterating
// the source KPI list through a fresh call restarts the sequence; the
// agent holds no cross-iteration state beyond the shared store.
func (a *Agent) RetrieveAll(ctx context.Context, kpis []kpi.KPI) <-chan Result {
	out := make(chan Result)
	go func() {
		defer close(out)
		for _, k := range kpis {
			name := k.Name
			if name == "" {
				name = "Unnamed_KPI"
			}
			table, err := a.GetDataForKPI(ctx, k)
			if err != nil {
				utils.LogError("Failed to retrieve data for KPI", err, map[string]interface{}{
					"kpi": name,
				})
				table = &dataset.Table{}
			}
			select {
			case out <- Result{KPIName: name, Table: table}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (a *Agent) buildPrompt(k kpi.KPI) string {
	var sb strings.Builder

	sb.WriteString("Given the dataset schema below:\n\n")
	sb.WriteString(fmt.Sprintf("Metrics: %s\n", strings.Join(a.summary.Metrics, ", ")))
	sb.WriteString(fmt.Sprintf("Dimensions: %s\n", strings.Join(a.summary.Dimensions, ", ")))
	sb.WriteString(fmt.Sprintf("Identifiers: %s\n\n", strings.Join(a.summary.Identifiers, ", ")))
	sb.WriteString(fmt.Sprintf("Write a SQL query that returns the minimal data required to compute the KPI named '%s'.\n\n", k.Name))
	sb.WriteString(fmt.Sprintf("KPI description: %s\n\n", k.Description))
	sb.WriteString(fmt.Sprintf("The data should include these fields: %s.\n", strings.Join(k.Fields, ", ")))
	sb.WriteString(fmt.Sprintf("Assume the main table is named '%s'.\n", dataset.MainTableName))
	sb.WriteString("Return the final SELECT statement.\n\n")
	sb.WriteString("Return ONLY the SQL query without explanations or comments.\n")

	return sb.String()
}
