package export

import (
	"fmt"
	"os"
	"strings"
)

// Service picks an exporter by format and writes report files.
type Service struct {
	exporters map[Format]Exporter
}

func NewService() *Service {
	return &Service{
		exporters: map[Format]Exporter{
			FormatXLSX: NewExcelExporter(),
			FormatPDF:  NewPDFExporter(),
		},
	}
}

// WriteFile renders the report to path in the given format. The format's
// extension is appended when path does not already carry it.
func (s *Service) WriteFile(r *Report, format Format, path string) (string, error) {
	exp, ok := s.exporters[format]
	if !ok {
		return "", fmt.Errorf("unsupported export format: %s", format)
	}

	if !strings.HasSuffix(strings.ToLower(path), exp.FileExtension()) {
		path += exp.FileExtension()
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	if err := exp.Export(r, f); err != nil {
		return "", fmt.Errorf("export report: %w", err)
	}
	return path, nil
}
