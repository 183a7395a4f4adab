package visuals

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"sync"

	"talktrace/internal/projection"

	"github.com/evanw/esbuild/pkg/api"
)

var (
	//go:embed assets/report.html.tmpl
	reportTemplate string

	//go:embed assets/report.js
	reportScript string
)

var (
	reportOnce sync.Once
	reportTmpl *template.Template
	reportJS   template.JS
	reportErr  error
)

// HTMLOptions controls the live-update hooks of the HTML report.
type HTMLOptions struct {
	// EventsURL is the WebSocket path the page follows for state changes.
	// Empty for static reports.
	EventsURL string
	// Sequence is the session sequence the model was projected from.
	Sequence uint64
}

type htmlConfig struct {
	EventsURL string `json:"eventsURL,omitempty"`
	Sequence  uint64 `json:"sequence"`
	Loading   bool   `json:"loading"`
}

type htmlChart struct {
	Title   string
	Legend  string
	Diagram string
}

type htmlRow struct {
	Label string
	Cells []string
}

type htmlHeatmap struct {
	Title   string
	Columns []string
	Rows    []htmlRow
}

type htmlView struct {
	projection.ChartModel
	Config    htmlConfig
	Script    template.JS
	HasResult bool
	Charts    []htmlChart
	Heatmap   *htmlHeatmap
	Wordcloud template.URL
}

// minifyScript compresses the inline report script with esbuild.
func minifyScript(src string) (string, error) {
	result := api.Transform(src, api.TransformOptions{
		Loader:            api.LoaderJS,
		MinifyWhitespace:  true,
		MinifyIdentifiers: true,
		MinifySyntax:      true,
	})
	if len(result.Errors) > 0 {
		msgs := make([]string, 0, len(result.Errors))
		for _, e := range result.Errors {
			msgs = append(msgs, e.Text)
		}
		return "", fmt.Errorf("minify report script: %s", strings.Join(msgs, "; "))
	}
	return string(result.Code), nil
}

func loadReport() (*template.Template, template.JS, error) {
	reportOnce.Do(func() {
		var js string
		js, reportErr = minifyScript(reportScript)
		if reportErr != nil {
			return
		}
		reportJS = template.JS(js)
		reportTmpl, reportErr = template.New("report").Parse(reportTemplate)
	})
	return reportTmpl, reportJS, reportErr
}

// WriteHTML renders a standalone HTML report. Charts are drawn client-side
// by Mermaid.
func WriteHTML(w io.Writer, m projection.ChartModel, opts HTMLOptions) error {
	tmpl, script, err := loadReport()
	if err != nil {
		return err
	}

	view := htmlView{
		ChartModel: m,
		Config:     htmlConfig{EventsURL: opts.EventsURL, Sequence: opts.Sequence, Loading: m.Loading},
		Script:     script,
		HasResult:  m.HasResult(),
	}
	if d := pieDiagram(m.Contribution); d != "" {
		view.Charts = append(view.Charts, htmlChart{Title: m.Contribution.Title, Diagram: d})
	}
	for _, chart := range xyCharts(m) {
		view.Charts = append(view.Charts, htmlChart{Title: chart.Title, Legend: legend(chart), Diagram: xyDiagram(chart)})
	}
	if h := m.Heatmap; h != nil {
		hv := &htmlHeatmap{Title: h.Title, Columns: h.Columns}
		for i, period := range h.Rows {
			row := htmlRow{Label: period}
			for _, v := range h.Cells[i] {
				row.Cells = append(row.Cells, formatNumber(v))
			}
			hv.Rows = append(hv.Rows, row)
		}
		view.Heatmap = hv
	}
	// Only inline images are trusted as URLs.
	if strings.HasPrefix(m.Wordcloud, "data:image/") {
		view.Wordcloud = template.URL(m.Wordcloud)
	}

	if err := tmpl.Execute(w, view); err != nil {
		return fmt.Errorf("render html report: %w", err)
	}
	return nil
}
