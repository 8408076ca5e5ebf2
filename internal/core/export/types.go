package export

import (
	"fmt"
	"io"
	"time"

	"github.com/datapilot-labs/kpi-dashboard-agent/internal/core/insight"
)

// Format is the report file format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// ParseFormat validates a format string from configuration.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatXLSX, FormatPDF:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unsupported export format: %s", s)
	}
}

// Exporter writes a report in one format.
type Exporter interface {
	Export(r *Report, w io.Writer) error
	FileExtension() string
}

// Section is one KPI's slice of the report: the narrative summary plus
// its descriptive-statistics table.
type Section struct {
	KPIName      string
	Summary      string
	StatsHeaders []string
	StatsRows    [][]interface{}
}

// Report is the offline counterpart of the dashboard: everything the run
// produced, in document form.
type Report struct {
	Title          string
	CreatedAt      time.Time
	OverallSummary string
	Sections       []Section
}

var statsHeaders = []string{"Field", "Count", "Mean", "Std", "Min", "Q25", "Median", "Q75", "Max"}

// BuildReport assembles a report from insight bundles in dashboard order.
func BuildReport(title, overallSummary string, bundles []insight.Bundle) *Report {
	r := &Report{
		Title:          title,
		CreatedAt:      time.Now(),
		OverallSummary: overallSummary,
	}
	for _, b := range bundles {
		sec := Section{
			KPIName: b.KPIName,
			Summary: b.Summary,
		}
		if len(b.DescriptiveStats) > 0 {
			sec.StatsHeaders = statsHeaders
			for _, s := range b.DescriptiveStats {
				sec.StatsRows = append(sec.StatsRows, []interface{}{
					s.Field, s.Count, s.Mean, s.Std, s.Min, s.Q25, s.Median, s.Q75, s.Max,
				})
			}
		}
		r.Sections = append(r.Sections, sec)
	}
	return r
}
