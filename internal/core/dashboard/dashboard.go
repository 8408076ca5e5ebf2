package dashboard

import (
	"bytes"
	"fmt"
	"html/template"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pkg/browser"

	"github.com/datapilot-labs/kpi-dashboard-agent/internal/core/viz"
	"github.com/datapilot-labs/kpi-dashboard-agent/internal/shared/utils"
)

// NewCardID mints an id for a card that has no chart to borrow one from.
func NewCardID() string { return uuid.NewString() }

// Card is one KPI's slot on the page: its insight text plus an optional
// chart. Cards render in slice order.
type Card struct {
	ID      string
	KPIName string
	Insight string
	Chart   *viz.Chart
}

// Assembler renders KPI cards into a single HTML page and serves it.
// Build may be called again (e.g. on a scheduled refresh) while Serve is
// running; the handler always returns the latest page.
type Assembler struct {
	port int
	app  *fiber.App

	mu   sync.RWMutex
	page []byte
}

func NewAssembler(port int) *Assembler {
	return &Assembler{port: port}
}

// Build renders the dashboard page from cards and an optional cross-KPI
// summary shown above them.
func (a *Assembler) Build(cards []Card, title, overallSummary string) error {
	data := pageData{
		Title:          title,
		OverallSummary: overallSummary,
	}
	for _, c := range cards {
		cv := cardView{
			ID:      c.ID,
			KPIName: c.KPIName,
			Insight: c.Insight,
		}
		if c.Chart != nil {
			optionJSON, err := c.Chart.OptionJSON()
			if err != nil {
				utils.LogWarn("Skipping chart that failed to serialize", map[string]interface{}{
					"kpi": c.KPIName,
				})
			} else {
				cv.ChartOption = template.JS(optionJSON)
			}
		}
		data.Cards = append(data.Cards, cv)
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return fmt.Errorf("render dashboard page: %w", err)
	}

	a.mu.Lock()
	a.page = buf.Bytes()
	a.mu.Unlock()
	return nil
}

// Page returns the latest rendered page, or nil before the first Build.
func (a *Assembler) Page() []byte {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.page
}

// Serve starts the HTTP server and blocks. It fails fast when Build was
// never called: serving an empty dashboard hides a broken pipeline.
func (a *Assembler) Serve(openBrowser bool) error {
	a.mu.RLock()
	built := a.page != nil
	a.mu.RUnlock()
	if !built {
		return fmt.Errorf("dashboard page is not built; call Build first")
	}

	a.app = fiber.New(fiber.Config{DisableStartupMessage: true})
	a.app.Get("/", func(c *fiber.Ctx) error {
		a.mu.RLock()
		page := a.page
		a.mu.RUnlock()
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.Send(page)
	})

	addr := fmt.Sprintf(":%d", a.port)
	url := fmt.Sprintf("http://127.0.0.1:%d", a.port)

	if openBrowser {
		time.AfterFunc(1*time.Second, func() {
			if err := browser.OpenURL(url); err != nil {
				utils.LogWarn("Failed to open browser", map[string]interface{}{
					"url": url,
				})
			}
		})
	}

	utils.LogInfo("🚀 Dashboard listening", map[string]interface{}{
		"url": url,
	})
	return a.app.Listen(addr)
}

// Shutdown stops the server if it is running.
func (a *Assembler) Shutdown() error {
	if a.app == nil {
		return nil
	}
	return a.app.Shutdown()
}

type cardView struct {
	ID          string
	KPIName     string
	Insight     string
	ChartOption template.JS
}

type pageData struct {
	Title          string
	OverallSummary string
	Cards          []cardView
}

var pageTemplate = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<script src="https://cdn.jsdelivr.net/npm/echarts@5/dist/echarts.min.js"></script>
<style>
  body { font-family: Arial, sans-serif; background-color: #f2f4f7; min-height: 100vh; margin: 0; }
  h1 { text-align: center; margin-top: 20px; }
  .cards { padding: 20px; }
  .summary { max-width: 900px; margin: 0 auto 25px auto; padding: 15px; border: 1px solid #ddd;
             border-radius: 8px; background-color: #fffbe6; white-space: pre-line; }
  .card { border: 2px solid #4a90e2; border-radius: 8px; padding: 15px; margin: 0 auto 25px auto;
          box-shadow: 2px 2px 5px rgba(0,0,0,0.1); max-width: 900px; background-color: #ffffff; }
  .card h3 { text-align: center; }
  .card-body { display: flex; flex-direction: row; gap: 20px; margin-top: 10px;
               flex-wrap: wrap; justify-content: center; }
  .insight { overflow-y: auto; height: 200px; border: 1px solid #ddd; padding: 10px;
             border-radius: 5px; background-color: #f9f9f9; white-space: pre-line; flex: 1 1 300px; }
  .chart { height: 350px; flex: 1 1 400px; }
  .no-chart { font-style: italic; align-self: center; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<div class="cards">
{{- if .OverallSummary}}
  <div class="summary"><h4>Overall Summary</h4>{{.OverallSummary}}</div>
{{- end}}
{{- range .Cards}}
  <div class="card">
    <h3>{{.KPIName}}</h3>
    <div class="card-body">
      <div class="insight"><h4>Insight</h4>{{.Insight}}</div>
{{- if .ChartOption}}
      <div class="chart" id="chart-{{.ID}}"></div>
      <script>
        echarts.init(document.getElementById("chart-{{.ID}}")).setOption({{.ChartOption}});
      </script>
{{- else}}
      <div class="no-chart">No visualization available</div>
{{- end}}
    </div>
  </div>
{{- end}}
</div>
</body>
</html>
`))
