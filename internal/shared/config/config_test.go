package config

import "testing"

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATASET_PATH", "/data/sales.csv")
	t.Setenv("DASHBOARD_PORT", "")
	t.Setenv("DASHBOARD_TITLE", "")
	t.Setenv("EXPORT_FORMAT", "")
	t.Setenv("OPEN_BROWSER", "")

	cfg := LoadConfig()
	if cfg.DatasetPath != "/data/sales.csv" {
		t.Errorf("dataset path = %q", cfg.DatasetPath)
	}
	if cfg.DashboardPort != "8050" {
		t.Errorf("port = %q, want 8050", cfg.DashboardPort)
	}
	if cfg.DashboardTitle != "KPI Insights Dashboard" {
		t.Errorf("title = %q", cfg.DashboardTitle)
	}
	if cfg.ExportFormat != "xlsx" {
		t.Errorf("export format = %q", cfg.ExportFormat)
	}
	if !cfg.OpenBrowser {
		t.Error("open browser should default to true")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DASHBOARD_PORT", "9000")
	t.Setenv("OPEN_BROWSER", "false")
	t.Setenv("CROSS_KPI_SUMMARY", "true")
	t.Setenv("REFRESH_CRON", "0 * * * *")

	cfg := LoadConfig()
	if cfg.DashboardPort != "9000" {
		t.Errorf("port = %q", cfg.DashboardPort)
	}
	if cfg.OpenBrowser {
		t.Error("open browser should be off")
	}
	if !cfg.CrossKPISummary {
		t.Error("cross-KPI summary should be on")
	}
	if cfg.RefreshCron != "0 * * * *" {
		t.Errorf("cron = %q", cfg.RefreshCron)
	}
}

func TestBoolEnvInvalidFallsBack(t *testing.T) {
	t.Setenv("OPEN_BROWSER", "kinda")
	cfg := LoadConfig()
	if !cfg.OpenBrowser {
		t.Error("unparseable bool should fall back to the default")
	}
}
