package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ColorRed    = 0xED4245
	ColorOrange = 0xE67E22
	ColorGreen  = 0x57F287
)

type ReportField struct {
	Name   string
	Value  string
	Inline bool
}

// Report is one human-readable notification for the guild's log channel.
type Report struct {
	ID        string
	GuildID   string
	Policy    string
	Kind      string
	Title     string
	Actor     string
	Fields    []ReportField
	Color     int
	CreatedAt time.Time
}

func NewReport(guildID, policy, kind, title string) *Report {
	return &Report{
		ID:        uuid.NewString(),
		GuildID:   guildID,
		Policy:    policy,
		Kind:      kind,
		Title:     title,
		Color:     ColorRed,
		CreatedAt: time.Now(),
	}
}

func (r *Report) AddField(name, value string) *Report {
	r.Fields = append(r.Fields, ReportField{Name: name, Value: value})
	return r
}

func (r *Report) AddInlineField(name, value string) *Report {
	r.Fields = append(r.Fields, ReportField{Name: name, Value: value, Inline: true})
	return r
}

// AddOutcome appends an outcome under the given field name.
func (r *Report) AddOutcome(name string, o Outcome) *Report {
	return r.AddField(name, o.ReportLine())
}

// Field returns the value of the first field with name.
func (r *Report) Field(name string) (string, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}
