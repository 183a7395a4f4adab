package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"talktrace/internal/analysis"

	"github.com/samber/lo"
)

type GeneratorConfig struct {
	Scenario string // "mild", "chaos" or "sparse"
	Users    []string
	Months   int
	Seed     int64
	Now      time.Time
}

func (cfg GeneratorConfig) withDefaults() GeneratorConfig {
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}
	if cfg.Months <= 0 {
		cfg.Months = 6
	}
	if len(cfg.Users) == 0 {
		cfg.Users = []string{"Alice", "Bob", "Carol"}
	}
	return cfg
}

var weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

var vocabulary = []string{"ok", "tomorrow", "lunch", "haha", "thanks", "meeting", "home", "weekend", "call", "later", "coffee", "train"}

var emojis = []string{"😂", "❤️", "👍", "🙏", "😊", "🎉", "😅", "🔥"}

// Generate builds a synthetic report for participant, "Overall" being the
// aggregate. Equal configs give equal reports.
func Generate(cfg GeneratorConfig, participant string) *analysis.Report {
	cfg = cfg.withDefaults()
	rng := rand.New(rand.NewSource(cfg.Seed))

	// Shares follow a Zipf-like curve; chaos skews it towards one talker.
	exponent := 1.0
	if cfg.Scenario == "chaos" {
		exponent = 2.5
	}
	weights := lo.Map(cfg.Users, func(_ string, i int) float64 { return 1 / math.Pow(float64(i+1), exponent) })
	total := lo.Sum(weights)
	shares := lo.Map(cfg.Users, func(name string, i int) analysis.UserShare {
		return analysis.UserShare{Name: name, Percent: round2(100 * weights[i] / total)}
	})

	scale := 1.0
	if participant != analysis.Overall {
		if share, ok := lo.Find(shares, func(s analysis.UserShare) bool { return s.Name == participant }); ok {
			scale = share.Percent / 100
		}
	}

	monthly := make([]analysis.MonthlyCount, 0, cfg.Months)
	sentiment := make([]analysis.SentimentRow, 0, cfg.Months)
	start := time.Date(cfg.Now.Year(), cfg.Now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -cfg.Months+1, 0)
	messages := 0
	for m := 0; m < cfg.Months; m++ {
		month := start.AddDate(0, m, 0)
		n := int(float64(80+rng.Intn(220)) * scale)
		if cfg.Scenario == "chaos" && rng.Float64() < 0.25 {
			n *= 4
		}
		messages += n
		monthly = append(monthly, analysis.MonthlyCount{Time: month.Format("January-2006"), Messages: n})

		pos := n * (30 + rng.Intn(30)) / 100
		neg := n * (5 + rng.Intn(20)) / 100
		row := analysis.SentimentRow{MonthYear: month.Format("2006-01"), Positive: pos, Negative: neg, Neutral: n - pos - neg}
		if cfg.Scenario == "sparse" && m%2 == 1 {
			row.Negative = 0
		}
		sentiment = append(sentiment, row)
	}
	words := messages * (4 + rng.Intn(5))

	report := &analysis.Report{
		Users: append([]string{analysis.Overall}, cfg.Users...),
		Stats: analysis.Stats{
			TotalMessages: messages,
			TotalWords:    words,
			MediaShared:   messages / (15 + rng.Intn(10)),
		},
		MostActiveTime:    fmt.Sprintf("%02d:00", 8+rng.Intn(15)),
		SentimentTimeline: sentiment,
		CommonWords:       topWords(rng, words),
		AvgMessageLength: lo.Map(cfg.Users, func(name string, _ int) analysis.MessageLength {
			return analysis.MessageLength{User: name, AvgLength: round2(12 + rng.Float64()*40)}
		}),
		EmojiStats: lo.Map(emojis[:3+rng.Intn(len(emojis)-3)], func(e string, i int) analysis.EmojiCount {
			return analysis.EmojiCount{Emoji: e, Count: (messages / 10) >> i}
		}),
	}
	report.MostActiveUsersPercent = []analysis.UserShare{}
	if participant == analysis.Overall {
		report.MostActiveUsersPercent = shares
	}

	// sparse mimics older services that only send the required sections.
	if cfg.Scenario == "sparse" {
		return report
	}

	links := messages / 40
	report.Stats.LinksShared = &links
	report.MonthlyTimeline = monthly
	report.WeeklyActivity = lo.Map(weekdays, func(day string, _ int) analysis.DayCount {
		return analysis.DayCount{Day: day, Count: int(float64(messages) * (0.08 + rng.Float64()*0.12))}
	})
	for d := 13; d >= 0; d-- {
		report.DailyTimeline = append(report.DailyTimeline, analysis.DailyCount{
			Date:     cfg.Now.AddDate(0, 0, -d).Format("2006-01-02"),
			Messages: rng.Intn(40),
		})
	}
	report.ActivityHeatmap = make(map[string]map[string]float64, 6)
	for h := 0; h < 24; h += 4 {
		row := make(map[string]float64, len(weekdays))
		for _, day := range weekdays {
			row[day] = float64(rng.Intn(50))
		}
		report.ActivityHeatmap[fmt.Sprintf("%02d-%02d", h, h+4)] = row
	}
	return report
}

func topWords(rng *rand.Rand, totalWords int) []analysis.WordCount {
	perm := rng.Perm(len(vocabulary))
	out := make([]analysis.WordCount, 0, 8)
	count := totalWords / 20
	for _, idx := range perm[:8] {
		pct := round2(100 * float64(count) / float64(max(totalWords, 1)))
		out = append(out, analysis.WordCount{Word: vocabulary[idx], Count: count, Percent: &pct})
		count = count * 3 / 4
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Save writes one report per participant to outDir as <prefix>_<participant>.json.
func Save(outDir, prefix string, cfg GeneratorConfig) ([]string, error) {
	cfg = cfg.withDefaults()
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, err
	}

	var written []string
	for _, participant := range append([]string{analysis.Overall}, cfg.Users...) {
		path := filepath.Join(outDir, fmt.Sprintf("%s_%s.json", prefix, participant))
		f, err := os.Create(path)
		if err != nil {
			return written, err
		}
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		encErr := enc.Encode(Generate(cfg, participant))
		if err := f.Close(); err != nil && encErr == nil {
			encErr = err
		}
		if encErr != nil {
			return written, encErr
		}
		written = append(written, path)
	}
	return written, nil
}
