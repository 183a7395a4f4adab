package visuals

import (
	"fmt"
	"io"

	"talktrace/internal/projection"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

// WriteTable prints the model as plain borderless tables, one per chart.
// Headings are coloured when colour is set.
func WriteTable(w io.Writer, m projection.ChartModel, colour bool) error {
	heading := func(text string) string {
		if colour {
			return color.New(color.BgBlack, color.FgGreen).Render(text)
		}
		return text
	}

	if !m.HasResult() {
		var status string
		switch {
		case m.FileName == "":
			status = "No chat file selected."
		case m.Loading:
			status = fmt.Sprintf("Analyzing %s...", m.FileName)
		default:
			status = "Error: " + m.Error
			if colour {
				status = color.Red.Render(status)
			}
		}
		_, err := fmt.Fprintln(w, status)
		return err
	}

	if _, err := fmt.Fprintf(w, "%s\n\n", heading("  ====== "+m.Header+" ======")); err != nil {
		return err
	}

	rows := make([][]string, 0, len(m.Cards)+1)
	for _, c := range m.Cards {
		rows = append(rows, []string{c.Label, fmt.Sprintf("%d", c.Value)})
	}
	rows = append(rows, []string{"Most Active Time", m.MostActiveTime})
	writeSection(w, heading("Stats"), []string{"Metric", "Value"}, rows)

	if p := m.Contribution; p != nil {
		rows := make([][]string, 0, len(p.Slices))
		for _, s := range p.Slices {
			rows = append(rows, []string{s.Label, formatNumber(s.Value)})
		}
		writeSection(w, heading(p.Title), []string{"Participant", "Percent"}, rows)
	}

	for _, chart := range xyCharts(m) {
		header := []string{""}
		for _, s := range chart.Series {
			header = append(header, s.Name)
		}
		rows := make([][]string, 0, len(chart.Labels))
		for i, label := range chart.Labels {
			row := []string{label}
			for _, s := range chart.Series {
				row = append(row, formatNumber(s.Values[i]))
			}
			rows = append(rows, row)
		}
		writeSection(w, heading(chart.Title), header, rows)
	}

	if h := m.Heatmap; h != nil {
		rows := make([][]string, 0, len(h.Rows))
		for i, period := range h.Rows {
			row := []string{period}
			for _, v := range h.Cells[i] {
				row = append(row, formatNumber(v))
			}
			rows = append(rows, row)
		}
		writeSection(w, heading(h.Title), append([]string{"Period"}, h.Columns...), rows)
	}

	if m.Wordcloud != "" {
		if _, err := fmt.Fprintf(w, "%s\n  (image, %d bytes; use --format html to view)\n", heading("Word Cloud"), len(m.Wordcloud)); err != nil {
			return err
		}
	}
	return nil
}

func writeSection(w io.Writer, title string, header []string, rows [][]string) {
	fmt.Fprintln(w, title)

	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.AppendBulk(rows)
	table.Render()

	fmt.Fprintln(w)
}
