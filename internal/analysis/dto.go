package analysis

import (
	"slices"

	"github.com/samber/lo"
)

// Overall is the participant value that selects the aggregate, unfiltered view.
const Overall = "Overall"

// Report is the decoded success payload of POST /analyze.
type Report struct {
	Users                  []string        `json:"user_list"`
	Stats                  Stats           `json:"stats"`
	MostActiveTime         string          `json:"most_active_time"`
	MostActiveUsersPercent []UserShare     `json:"most_active_users_percent"`
	CommonWords            []WordCount     `json:"common_words"`
	SentimentTimeline      []SentimentRow  `json:"sentiment_timeline"`
	AvgMessageLength       []MessageLength `json:"avg_message_length"`
	EmojiStats             []EmojiCount    `json:"emoji_stats"`
	Wordcloud              *string         `json:"wordcloud,omitempty"`

	// Sections below are optional; older services do not send them.
	MonthlyTimeline []MonthlyCount                `json:"monthly_timeline,omitempty"`
	DailyTimeline   []DailyCount                  `json:"daily_timeline,omitempty"`
	WeeklyActivity  []DayCount                    `json:"weekly_activity,omitempty"`
	ActivityHeatmap map[string]map[string]float64 `json:"activity_heatmap,omitempty"`
}

// Stats holds the headline counters.
type Stats struct {
	TotalMessages int  `json:"total_messages"`
	TotalWords    int  `json:"total_words"`
	MediaShared   int  `json:"media_shared"`
	LinksShared   *int `json:"links_shared,omitempty"`
}

// UserShare is one participant's share of all messages, in percent.
type UserShare struct {
	Name    string  `json:"name"`
	Percent float64 `json:"percent"`
}

type WordCount struct {
	Word    string   `json:"word"`
	Count   int      `json:"count"`
	Percent *float64 `json:"percent,omitempty"`
}

// SentimentRow counts classified messages for one month. The service omits
// a label column when no message of that month carries it.
type SentimentRow struct {
	MonthYear string `json:"month_year"`
	Positive  int    `json:"Positive"`
	Negative  int    `json:"Negative"`
	Neutral   int    `json:"Neutral"`
}

type MessageLength struct {
	User      string  `json:"user"`
	AvgLength float64 `json:"avg_length"`
}

type EmojiCount struct {
	Emoji   string   `json:"emoji"`
	Count   int      `json:"count"`
	Percent *float64 `json:"percent,omitempty"`
}

type MonthlyCount struct {
	Time     string `json:"time"`
	Messages int    `json:"message"`
}

type DailyCount struct {
	Date     string `json:"only_date"`
	Messages int    `json:"message"`
}

type DayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// HasParticipant reports whether name is the aggregate view or a listed user.
func (r *Report) HasParticipant(name string) bool {
	return name == Overall || slices.Contains(r.Users, name)
}

// normalize strips the aggregate sentinel some service versions prepend to user_list.
func (r *Report) normalize() {
	r.Users = lo.Without(r.Users, Overall)
	if r.Users == nil {
		r.Users = []string{}
	}
}
