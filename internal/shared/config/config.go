package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DatasetPath    string
	UserQuery      string
	DashboardPort  string
	DashboardTitle string
	DatetimeColumn string
	OpenBrowser    bool

	CrossKPISummary bool
	ExportPath      string
	ExportFormat    string
	RefreshCron     string
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ .env file not found, using system environment variables")
	}

	cfg := &Config{
		DatasetPath:     os.Getenv("DATASET_PATH"),
		UserQuery:       os.Getenv("USER_QUERY"),
		DashboardPort:   os.Getenv("DASHBOARD_PORT"),
		DashboardTitle:  os.Getenv("DASHBOARD_TITLE"),
		DatetimeColumn:  os.Getenv("DATETIME_COLUMN"),
		OpenBrowser:     boolEnv("OPEN_BROWSER", true),
		CrossKPISummary: boolEnv("CROSS_KPI_SUMMARY", false),
		ExportPath:      os.Getenv("EXPORT_PATH"),
		ExportFormat:    os.Getenv("EXPORT_FORMAT"),
		RefreshCron:     os.Getenv("REFRESH_CRON"),
	}

	// Default values
	if cfg.DashboardPort == "" {
		cfg.DashboardPort = "8050"
	}
	if cfg.DashboardTitle == "" {
		cfg.DashboardTitle = "KPI Insights Dashboard"
	}
	if cfg.ExportFormat == "" {
		cfg.ExportFormat = "xlsx"
	}

	return cfg
}

func boolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
