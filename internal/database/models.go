package database

import "time"

// Incident is an archived report.
type Incident struct {
	ID        string
	GuildID   string
	Policy    string
	Kind      string
	Title     string
	Actor     string
	Fields    []IncidentField
	Delivered bool
	CreatedAt time.Time
}

type IncidentField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}
