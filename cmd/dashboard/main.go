package main

import (
	"context"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/datapilot-labs/kpi-dashboard-agent/internal/core/dashboard"
	"github.com/datapilot-labs/kpi-dashboard-agent/internal/core/dataset"
	"github.com/datapilot-labs/kpi-dashboard-agent/internal/core/export"
	"github.com/datapilot-labs/kpi-dashboard-agent/internal/core/insight"
	"github.com/datapilot-labs/kpi-dashboard-agent/internal/core/kpi"
	"github.com/datapilot-labs/kpi-dashboard-agent/internal/core/llm"
	"github.com/datapilot-labs/kpi-dashboard-agent/internal/core/retrieval"
	"github.com/datapilot-labs/kpi-dashboard-agent/internal/core/schedule"
	"github.com/datapilot-labs/kpi-dashboard-agent/internal/core/schema"
	"github.com/datapilot-labs/kpi-dashboard-agent/internal/core/viz"
	"github.com/datapilot-labs/kpi-dashboard-agent/internal/shared/config"
	"github.com/datapilot-labs/kpi-dashboard-agent/internal/shared/utils"
)

// datetimeCandidates are checked in order when DATETIME_COLUMN is unset.
var datetimeCandidates = []string{"date", "timestamp", "datetime"}

func main() {
	// Init logger
	utils.InitLogger()

	// Load config
	cfg := config.LoadConfig()
	log.Info().Str("dataset", cfg.DatasetPath).Msg("🚀 Starting KPI dashboard agent")

	if cfg.DatasetPath == "" {
		log.Fatal().Msg("DATASET_PATH is required")
	}
	port, err := strconv.Atoi(cfg.DashboardPort)
	if err != nil {
		log.Fatal().Err(err).Str("port", cfg.DashboardPort).Msg("Invalid DASHBOARD_PORT")
	}

	ctx := context.Background()

	// Parse dataset schema
	log.Info().Msg("📄 Parsing dataset schema...")
	table, err := dataset.Load(cfg.DatasetPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load dataset")
	}
	fields := schema.Infer(table, dataset.TableName(cfg.DatasetPath))
	summary := schema.Summarize(fields)

	// Identify KPIs for the user's goal
	llmSvc := llm.NewService()
	log.Info().Str("query", cfg.UserQuery).Msg("🔍 Identifying KPIs for query")
	proposer := kpi.NewProposer(llmSvc)
	kpis, err := proposer.Suggest(ctx, summary, cfg.UserQuery)
	if err != nil {
		log.Fatal().Err(err).Msg("KPI identification failed")
	}
	if len(kpis) == 0 {
		log.Info().Msg("No KPIs were identified. Exiting.")
		return
	}

	// Load dataset into the in-memory session store
	log.Info().Int("rows", table.NumRows()).Msg("💾 Loading dataset into session store...")
	store, err := dataset.NewSessionStore(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open session store")
	}
	defer store.Close()
	if err := store.LoadMainTable(ctx, table); err != nil {
		log.Fatal().Err(err).Msg("Failed to load main table")
	}

	datetimeCol := detectDatetimeColumn(cfg.DatetimeColumn, table)
	if datetimeCol != "" {
		log.Info().Str("column", datetimeCol).Msg("📅 Trend analysis enabled")
	}

	p := &pipeline{
		cfg:       cfg,
		retriever: retrieval.NewAgent(llmSvc, store, summary),
		insights:  insight.NewAgent(llmSvc, datetimeCol),
		charts:    viz.NewAgent(llmSvc),
	}

	cards, bundles, overall := p.run(ctx, kpis)
	if len(cards) == 0 {
		log.Info().Msg("No insights or visualizations to build dashboard.")
		return
	}

	assembler := dashboard.NewAssembler(port)
	if err := assembler.Build(cards, cfg.DashboardTitle, overall); err != nil {
		log.Fatal().Err(err).Msg("Failed to build dashboard")
	}

	if cfg.ExportPath != "" {
		exportReport(cfg, overall, bundles)
	}

	if cfg.RefreshCron != "" {
		refresher := schedule.NewRefresher()
		err := refresher.Add(cfg.RefreshCron, func() error {
			rctx := context.Background()
			if err := store.LoadMainTable(rctx, table); err != nil {
				return err
			}
			cards, bundles, overall := p.run(rctx, kpis)
			if cfg.ExportPath != "" {
				exportReport(cfg, overall, bundles)
			}
			return rebuildDashboard(assembler, cards, cfg.DashboardTitle, overall)
		})
		if err != nil {
			log.Fatal().Err(err).Str("cron", cfg.RefreshCron).Msg("Invalid REFRESH_CRON")
		}
		refresher.Start()
		defer refresher.Stop()
		log.Info().Str("cron", cfg.RefreshCron).Msg("⏰ Scheduled refresh enabled")
	}

	if err := assembler.Serve(cfg.OpenBrowser); err != nil {
		log.Fatal().Err(err).Msg("Dashboard server failed")
	}
}

// pipeline holds the per-run agents so the scheduled refresh can replay
// retrieval, insight and visualization without re-proposing KPIs.
type pipeline struct {
	cfg       *config.Config
	retriever *retrieval.Agent
	insights  *insight.Agent
	charts    *viz.Agent
}

// run processes every KPI sequentially: retrieve data, generate insights,
// attempt a chart. KPIs whose retrieval produced no rows are skipped.
func (p *pipeline) run(ctx context.Context, kpis []kpi.KPI) ([]dashboard.Card, []insight.Bundle, string) {
	byName := make(map[string]kpi.KPI, len(kpis))
	for _, k := range kpis {
		byName[k.Name] = k
	}

	var cards []dashboard.Card
	var bundles []insight.Bundle

	for result := range p.retriever.RetrieveAll(ctx, kpis) {
		log.Info().Str("kpi", result.KPIName).Msg("=== Processing KPI ===")

		if result.Table == nil || result.Table.Empty() {
			log.Info().Str("kpi", result.KPIName).Msg("No data available for KPI. Skipping.")
			continue
		}
		meta, ok := byName[result.KPIName]
		if !ok {
			log.Warn().Str("kpi", result.KPIName).Msg("KPI metadata missing. Skipping.")
			continue
		}

		bundle := p.insights.GenerateForKPI(ctx, meta, result.Table)
		bundles = append(bundles, bundle)

		chart := p.charts.CreateVisualization(ctx, meta, bundle.Summary, result.Table)
		if chart != nil {
			log.Info().Str("kpi", result.KPIName).Msg("Visualization generated")
		} else {
			log.Info().Str("kpi", result.KPIName).Msg("No visualization generated")
		}

		cards = append(cards, dashboard.Card{
			ID:      uuidFor(chart),
			KPIName: result.KPIName,
			Insight: bundle.Summary,
			Chart:   chart,
		})
	}

	overall := ""
	if p.cfg.CrossKPISummary && len(bundles) > 0 {
		summaries := make([]insight.KPISummary, len(bundles))
		for i, b := range bundles {
			summaries[i] = insight.KPISummary{Name: b.KPIName, Summary: b.Summary}
		}
		text, err := p.insights.FinalSummary(ctx, summaries)
		if err != nil {
			utils.LogError("Cross-KPI summary failed", err, nil)
		} else {
			overall = text
		}
	}

	return cards, bundles, overall
}

// uuidFor reuses the chart's id for its card so the page's chart div ids
// stay stable; cards without a chart get a fresh one.
func uuidFor(chart *viz.Chart) string {
	if chart != nil {
		return chart.ID
	}
	return dashboard.NewCardID()
}

// rebuildDashboard swaps in a refreshed page only when the run produced
// cards; an empty refresh keeps the previous dashboard visible instead of
// blanking it.
func rebuildDashboard(a *dashboard.Assembler, cards []dashboard.Card, title, overall string) error {
	if len(cards) == 0 {
		utils.LogWarn("Refresh produced no KPI cards; keeping previous dashboard", nil)
		return nil
	}
	return a.Build(cards, title, overall)
}

func exportReport(cfg *config.Config, overall string, bundles []insight.Bundle) {
	format, err := export.ParseFormat(cfg.ExportFormat)
	if err != nil {
		utils.LogError("Skipping report export", err, nil)
		return
	}
	report := export.BuildReport(cfg.DashboardTitle, overall, bundles)
	path, err := export.NewService().WriteFile(report, format, cfg.ExportPath)
	if err != nil {
		utils.LogError("Report export failed", err, nil)
		return
	}
	log.Info().Str("path", path).Msg("📊 Report exported")
}

// detectDatetimeColumn prefers the configured column, then the first
// conventional name present in the dataset.
func detectDatetimeColumn(configured string, t *dataset.Table) string {
	if configured != "" {
		if t.ColumnIndex(configured) >= 0 {
			return configured
		}
		utils.LogWarn("Configured datetime column not found in dataset", map[string]interface{}{
			"column": configured,
		})
	}
	for _, c := range datetimeCandidates {
		if t.ColumnIndex(c) >= 0 {
			return c
		}
	}
	return ""
}
