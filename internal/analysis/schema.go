package analysis

import (
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

var (
	reportSchemaOnce sync.Once
	reportSchema     *jsonschema.Resolved
	reportSchemaErr  error
)

func str() *jsonschema.Schema { return &jsonschema.Schema{Type: "string"} }
func num() *jsonschema.Schema { return &jsonschema.Schema{Type: "number"} }
func integer() *jsonschema.Schema { return &jsonschema.Schema{Type: "integer"} }

func arrayOf(item *jsonschema.Schema) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "array", Items: item}
}

func object(props map[string]*jsonschema.Schema, required ...string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "object", Properties: props, Required: required}
}

// ReportSchema describes the success body of POST /analyze. Optional sections
// are typed when present but never required.
func ReportSchema() *jsonschema.Schema {
	return object(map[string]*jsonschema.Schema{
		"user_list": arrayOf(str()),
		"stats": object(map[string]*jsonschema.Schema{
			"total_messages": integer(),
			"total_words":    integer(),
			"media_shared":   integer(),
			"links_shared":   integer(),
		}, "total_messages", "total_words", "media_shared"),
		"most_active_time": str(),
		"most_active_users_percent": arrayOf(object(map[string]*jsonschema.Schema{
			"name":    str(),
			"percent": num(),
		}, "name", "percent")),
		"common_words": arrayOf(object(map[string]*jsonschema.Schema{
			"word":    str(),
			"count":   integer(),
			"percent": num(),
		}, "word", "count")),
		"sentiment_timeline": arrayOf(object(map[string]*jsonschema.Schema{
			"month_year": str(),
			"Positive":   integer(),
			"Negative":   integer(),
			"Neutral":    integer(),
		}, "month_year")),
		"avg_message_length": arrayOf(object(map[string]*jsonschema.Schema{
			"user":       str(),
			"avg_length": num(),
		}, "user", "avg_length")),
		"emoji_stats": arrayOf(object(map[string]*jsonschema.Schema{
			"emoji":   str(),
			"count":   integer(),
			"percent": num(),
		}, "emoji", "count")),
		"wordcloud": {Types: []string{"string", "null"}},
		"monthly_timeline": arrayOf(object(map[string]*jsonschema.Schema{
			"time":    str(),
			"message": integer(),
		}, "time", "message")),
		"daily_timeline": arrayOf(object(map[string]*jsonschema.Schema{
			"only_date": str(),
			"message":   integer(),
		}, "only_date", "message")),
		"weekly_activity": arrayOf(object(map[string]*jsonschema.Schema{
			"day":   str(),
			"count": integer(),
		}, "day", "count")),
		"activity_heatmap": {
			Type: "object",
			AdditionalProperties: &jsonschema.Schema{
				Type:                 "object",
				AdditionalProperties: num(),
			},
		},
	},
		"user_list",
		"stats",
		"most_active_time",
		"most_active_users_percent",
		"common_words",
		"sentiment_timeline",
		"avg_message_length",
		"emoji_stats",
	)
}

// validateReport checks a generically decoded JSON body against ReportSchema.
func validateReport(instance any) error {
	reportSchemaOnce.Do(func() {
		reportSchema, reportSchemaErr = ReportSchema().Resolve(nil)
	})
	if reportSchemaErr != nil {
		return fmt.Errorf("resolving report schema: %w", reportSchemaErr)
	}
	return reportSchema.Validate(instance)
}
