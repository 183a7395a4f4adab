package visuals

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"talktrace/internal/projection"
)

// formatNumber prints the shortest representation that round-trips, so
// integers stay integers and no float is rounded.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// quote wraps label for Mermaid, keeping embedded double quotes as entities.
func quote(label string) string {
	return "\"" + strings.ReplaceAll(label, "\"", "#quot;") + "\""
}

func fence(diagram string) string {
	if diagram == "" {
		return ""
	}
	return "```mermaid\n" + diagram + "```"
}

// GenerateContributionPie creates a Mermaid pie chart of each participant's share of messages.
func GenerateContributionPie(chart *projection.PieChart) string {
	return fence(pieDiagram(chart))
}

// GenerateXYChart creates a Mermaid xychart-beta with one bar or line per series.
func GenerateXYChart(chart *projection.XYChart) string {
	return fence(xyDiagram(chart))
}

func pieDiagram(chart *projection.PieChart) string {
	if chart == nil || len(chart.Slices) == 0 {
		return ""
	}

	vars := make([]string, 0, len(chart.Slices))
	for i, s := range chart.Slices {
		vars = append(vars, fmt.Sprintf("\"pie%d\": \"%s\"", i+1, s.Color))
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%%%%{init: {\"themeVariables\": {%s}}}%%%%\n", strings.Join(vars, ", ")))
	sb.WriteString(fmt.Sprintf("pie title %s\n", chart.Title))
	for _, s := range chart.Slices {
		sb.WriteString(fmt.Sprintf("    %s : %s\n", quote(s.Label), formatNumber(s.Value)))
	}
	return sb.String()
}

func xyDiagram(chart *projection.XYChart) string {
	if chart == nil || len(chart.Labels) == 0 || len(chart.Series) == 0 {
		return ""
	}

	labels := make([]string, 0, len(chart.Labels))
	for _, l := range chart.Labels {
		labels = append(labels, quote(l))
	}
	colors := make([]string, 0, len(chart.Series))
	for _, s := range chart.Series {
		colors = append(colors, s.Color)
	}

	// Give the tallest bar some headroom, as long as the axis stays above zero.
	maxY := int(math.Ceil(chart.Max() * 1.2))
	if maxY < 1 {
		maxY = 1
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%%%%{init: {\"themeVariables\": {\"xyChart\": {\"plotColorPalette\": \"%s\"}}}}%%%%\n", strings.Join(colors, ", ")))
	if chart.Horizontal {
		sb.WriteString("xychart-beta horizontal\n")
	} else {
		sb.WriteString("xychart-beta\n")
	}
	sb.WriteString(fmt.Sprintf("    title %s\n", quote(chart.Title)))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis %s 0 --> %d\n", quote(chart.YLabel), maxY))
	for _, s := range chart.Series {
		values := make([]string, 0, len(s.Values))
		for _, v := range s.Values {
			values = append(values, formatNumber(v))
		}
		sb.WriteString(fmt.Sprintf("    %s [%s]\n", chart.Kind, strings.Join(values, ", ")))
	}
	return sb.String()
}

// legend names the series of a multi-series chart, which xychart cannot label itself.
func legend(chart *projection.XYChart) string {
	if chart == nil || len(chart.Series) < 2 {
		return ""
	}
	parts := make([]string, 0, len(chart.Series))
	for _, s := range chart.Series {
		parts = append(parts, fmt.Sprintf("%s (%s)", s.Name, s.Color))
	}
	return "Series: " + strings.Join(parts, ", ")
}

// GenerateMarkdown renders the whole model as a Markdown document with
// embedded Mermaid charts.
func GenerateMarkdown(m projection.ChartModel) string {
	var sb strings.Builder
	if !m.HasResult() {
		writeStatus(&sb, m)
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("## %s\n\n", m.Header))
	if m.Loading {
		sb.WriteString("_Refreshing..._\n\n")
	}
	for _, c := range m.Cards {
		sb.WriteString(fmt.Sprintf("- **%s:** %d\n", c.Label, c.Value))
	}
	sb.WriteString(fmt.Sprintf("- **Most Active Time:** %s\n", m.MostActiveTime))

	if pie := GenerateContributionPie(m.Contribution); pie != "" {
		sb.WriteString("\n" + pie + "\n")
	}
	for _, chart := range xyCharts(m) {
		sb.WriteString("\n")
		if l := legend(chart); l != "" {
			sb.WriteString(l + "\n\n")
		}
		sb.WriteString(GenerateXYChart(chart) + "\n")
	}
	if m.Heatmap != nil {
		sb.WriteString("\n### " + m.Heatmap.Title + "\n\n")
		sb.WriteString("| Period | " + strings.Join(m.Heatmap.Columns, " | ") + " |\n")
		sb.WriteString("|---" + strings.Repeat("|---", len(m.Heatmap.Columns)) + "|\n")
		for i, row := range m.Heatmap.Rows {
			cells := make([]string, 0, len(m.Heatmap.Columns))
			for _, v := range m.Heatmap.Cells[i] {
				cells = append(cells, formatNumber(v))
			}
			sb.WriteString("| " + row + " | " + strings.Join(cells, " | ") + " |\n")
		}
	}
	if m.Wordcloud != "" {
		sb.WriteString("\n### Word Cloud\n\n![Word Cloud](" + m.Wordcloud + ")\n")
	}
	return sb.String()
}

func writeStatus(sb *strings.Builder, m projection.ChartModel) {
	switch {
	case m.FileName == "":
		sb.WriteString("No chat file selected.\n")
	case m.Loading:
		sb.WriteString(fmt.Sprintf("Analyzing %s...\n", m.FileName))
	case m.Error != "":
		sb.WriteString(fmt.Sprintf("Error: %s\n", m.Error))
	}
}

// xyCharts lists the present bar and line charts in display order.
func xyCharts(m projection.ChartModel) []*projection.XYChart {
	var out []*projection.XYChart
	for _, c := range []*projection.XYChart{m.CommonWords, m.Sentiment, m.AvgLength, m.Emojis, m.Monthly, m.Daily, m.WeeklyActivity} {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}
