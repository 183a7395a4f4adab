// Package projection maps a session State onto chart-ready records. It is a
// pure function of its input: no I/O, no clocks, no rounding.
package projection

import (
	"fmt"
	"sort"

	"talktrace/internal/analysis"
	"talktrace/internal/session"

	"github.com/samber/lo"
)

// Palette holds the series colours, assigned by index.
var Palette = []string{"#0088FE", "#00C49F", "#FFBB28", "#FF8042", "#A28DFF", "#FFD700"}

// Sentiment line colours.
const (
	PositiveColor = "#4CAF50"
	NegativeColor = "#F44336"
	NeutralColor  = "#FFC107"
)

// Fixed single-series bar colours.
const (
	wordsColor    = "#8884d8"
	lengthColor   = "#00C49F"
	emojiColor    = "#FFBB28"
	timelineColor = "#0088FE"
)

// Color returns the palette entry for series i. Negative indexes wrap too.
func Color(i int) string {
	n := len(Palette)
	return Palette[((i%n)+n)%n]
}

type ChartKind string

const (
	KindBar  ChartKind = "bar"
	KindLine ChartKind = "line"
)

// StatCard is one headline counter, copied verbatim from the report.
type StatCard struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// Slice is one pie segment.
type Slice struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
}

type PieChart struct {
	Title  string  `json:"title"`
	Slices []Slice `json:"slices"`
}

// Series is one named run of values aligned with XYChart.Labels.
type Series struct {
	Name   string    `json:"name"`
	Color  string    `json:"color"`
	Values []float64 `json:"values"`
}

// XYChart is a categorical bar or line chart.
type XYChart struct {
	Title      string    `json:"title"`
	Kind       ChartKind `json:"kind"`
	Horizontal bool      `json:"horizontal,omitempty"`
	YLabel     string    `json:"y_label,omitempty"`
	Labels     []string  `json:"labels"`
	Series     []Series  `json:"series"`
}

// Max returns the largest value over all series, or 0 for an empty chart.
func (c *XYChart) Max() float64 {
	var maxVal float64
	for _, s := range c.Series {
		for _, v := range s.Values {
			if v > maxVal {
				maxVal = v
			}
		}
	}
	return maxVal
}

// Heatmap is a period by weekday matrix. Missing cells are 0.
type Heatmap struct {
	Title   string      `json:"title"`
	Rows    []string    `json:"rows"`
	Columns []string    `json:"columns"`
	Cells   [][]float64 `json:"cells"`
}

// ChartModel is everything a presentation layer needs to draw one session.
type ChartModel struct {
	Phase          session.Phase `json:"phase"`
	FileName       string        `json:"file_name,omitempty"`
	Participants   []string      `json:"participants"`
	Selected       string        `json:"selected"`
	Loading        bool          `json:"loading"`
	Error          string        `json:"error,omitempty"`
	Header         string        `json:"header,omitempty"`
	Cards          []StatCard    `json:"cards,omitempty"`
	MostActiveTime string        `json:"most_active_time,omitempty"`

	Contribution *PieChart `json:"contribution,omitempty"`
	CommonWords  *XYChart  `json:"common_words,omitempty"`
	Sentiment    *XYChart  `json:"sentiment,omitempty"`
	AvgLength    *XYChart  `json:"avg_length,omitempty"`
	Emojis       *XYChart  `json:"emojis,omitempty"`
	Wordcloud    string    `json:"wordcloud,omitempty"`

	Monthly        *XYChart `json:"monthly,omitempty"`
	Daily          *XYChart `json:"daily,omitempty"`
	WeeklyActivity *XYChart `json:"weekly_activity,omitempty"`
	Heatmap        *Heatmap `json:"heatmap,omitempty"`
}

// HasResult reports whether the model carries report data.
func (m ChartModel) HasResult() bool { return m.Header != "" }

// Project builds the chart model for st. The same state always yields an
// equal model.
func Project(st session.State) ChartModel {
	m := ChartModel{
		Phase:        st.Phase(),
		Selected:     string(st.SelectedParticipant),
		Loading:      st.Loading,
		Error:        st.ErrorMessage,
		Participants: []string{analysis.Overall},
	}
	if st.File != nil {
		m.FileName = st.File.Name
	}
	if st.Result == nil || st.Result.Report == nil {
		return m
	}

	r := st.Result.Report
	m.Participants = append(m.Participants, r.Users...)
	m.Header = fmt.Sprintf("Analysis for: %s", st.SelectedParticipant)
	m.Cards = statCards(r.Stats)
	m.MostActiveTime = r.MostActiveTime

	if st.SelectedParticipant == session.Overall && len(r.MostActiveUsersPercent) > 0 {
		m.Contribution = &PieChart{
			Title: "Message Contribution",
			Slices: lo.Map(r.MostActiveUsersPercent, func(u analysis.UserShare, i int) Slice {
				return Slice{Label: u.Name, Value: u.Percent, Color: Color(i)}
			}),
		}
	}

	if len(r.CommonWords) > 0 {
		m.CommonWords = &XYChart{
			Title:      "Most Common Words",
			Kind:       KindBar,
			Horizontal: true,
			YLabel:     "Count",
			Labels:     lo.Map(r.CommonWords, func(w analysis.WordCount, _ int) string { return w.Word }),
			Series: []Series{{
				Name:   "count",
				Color:  wordsColor,
				Values: lo.Map(r.CommonWords, func(w analysis.WordCount, _ int) float64 { return float64(w.Count) }),
			}},
		}
	}

	if len(r.SentimentTimeline) > 0 {
		rows := r.SentimentTimeline
		m.Sentiment = &XYChart{
			Title:  "Sentiment Over Time",
			Kind:   KindLine,
			YLabel: "Messages",
			Labels: lo.Map(rows, func(s analysis.SentimentRow, _ int) string { return s.MonthYear }),
			Series: []Series{
				{Name: "Positive", Color: PositiveColor, Values: lo.Map(rows, func(s analysis.SentimentRow, _ int) float64 { return float64(s.Positive) })},
				{Name: "Negative", Color: NegativeColor, Values: lo.Map(rows, func(s analysis.SentimentRow, _ int) float64 { return float64(s.Negative) })},
				{Name: "Neutral", Color: NeutralColor, Values: lo.Map(rows, func(s analysis.SentimentRow, _ int) float64 { return float64(s.Neutral) })},
			},
		}
	}

	if len(r.AvgMessageLength) > 0 {
		m.AvgLength = &XYChart{
			Title:  "Average Message Length (Words)",
			Kind:   KindBar,
			YLabel: "Avg. Words",
			Labels: lo.Map(r.AvgMessageLength, func(l analysis.MessageLength, _ int) string { return l.User }),
			Series: []Series{{
				Name:   "Avg. Words",
				Color:  lengthColor,
				Values: lo.Map(r.AvgMessageLength, func(l analysis.MessageLength, _ int) float64 { return l.AvgLength }),
			}},
		}
	}

	if len(r.EmojiStats) > 0 {
		m.Emojis = &XYChart{
			Title:      "Most Used Emojis",
			Kind:       KindBar,
			Horizontal: true,
			YLabel:     "Count",
			Labels:     lo.Map(r.EmojiStats, func(e analysis.EmojiCount, _ int) string { return e.Emoji }),
			Series: []Series{{
				Name:   "count",
				Color:  emojiColor,
				Values: lo.Map(r.EmojiStats, func(e analysis.EmojiCount, _ int) float64 { return float64(e.Count) }),
			}},
		}
	}

	if r.Wordcloud != nil {
		m.Wordcloud = *r.Wordcloud
	}

	m.Monthly = timeline("Monthly Timeline", KindLine,
		lo.Map(r.MonthlyTimeline, func(c analysis.MonthlyCount, _ int) string { return c.Time }),
		lo.Map(r.MonthlyTimeline, func(c analysis.MonthlyCount, _ int) float64 { return float64(c.Messages) }))
	m.Daily = timeline("Daily Timeline", KindLine,
		lo.Map(r.DailyTimeline, func(c analysis.DailyCount, _ int) string { return c.Date }),
		lo.Map(r.DailyTimeline, func(c analysis.DailyCount, _ int) float64 { return float64(c.Messages) }))
	m.WeeklyActivity = timeline("Weekly Activity", KindBar,
		lo.Map(r.WeeklyActivity, func(c analysis.DayCount, _ int) string { return c.Day }),
		lo.Map(r.WeeklyActivity, func(c analysis.DayCount, _ int) float64 { return float64(c.Count) }))
	m.Heatmap = heatmap(r.ActivityHeatmap)

	return m
}

func statCards(s analysis.Stats) []StatCard {
	cards := []StatCard{
		{Label: "Total Messages", Value: s.TotalMessages},
		{Label: "Total Words", Value: s.TotalWords},
		{Label: "Media Shared", Value: s.MediaShared},
	}
	if s.LinksShared != nil {
		cards = append(cards, StatCard{Label: "Links Shared", Value: *s.LinksShared})
	}
	return cards
}

func timeline(title string, kind ChartKind, labels []string, values []float64) *XYChart {
	if len(labels) == 0 {
		return nil
	}
	return &XYChart{
		Title:  title,
		Kind:   kind,
		YLabel: "Messages",
		Labels: labels,
		Series: []Series{{Name: "messages", Color: timelineColor, Values: values}},
	}
}

var weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// heatmap orders rows by period label and columns by weekday, with any
// non-weekday column names appended alphabetically.
func heatmap(src map[string]map[string]float64) *Heatmap {
	if len(src) == 0 {
		return nil
	}

	rows := lo.Keys(src)
	sort.Strings(rows)

	seen := map[string]bool{}
	for _, cols := range src {
		for day := range cols {
			seen[day] = true
		}
	}
	columns := lo.Filter(weekdays, func(d string, _ int) bool { return seen[d] })
	extra := lo.Filter(lo.Keys(seen), func(d string, _ int) bool { return !lo.Contains(weekdays, d) })
	sort.Strings(extra)
	columns = append(columns, extra...)

	cells := lo.Map(rows, func(period string, _ int) []float64 {
		return lo.Map(columns, func(day string, _ int) float64 { return src[period][day] })
	})
	return &Heatmap{Title: "Activity Heatmap", Rows: rows, Columns: columns, Cells: cells}
}
