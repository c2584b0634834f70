package domain

import "time"

// SourceType groups trusted sources.
type SourceType string

const (
	SourceGovernment   SourceType = "government"
	SourceNews         SourceType = "news"
	SourceAcademic     SourceType = "academic"
	SourceOrganization SourceType = "organization"
)

// TrustedSource is an external reference used to corroborate claims.
type TrustedSource struct {
	ID               string     `db:"id"                json:"id"`
	Name             string     `db:"name"              json:"name"`
	SourceType       SourceType `db:"source_type"       json:"source_type"`
	URL              string     `db:"url"               json:"url"`
	ReliabilityScore float64    `db:"reliability_score" json:"reliability_score"`
	Keywords         []string   `db:"keywords"          json:"keywords"`
	Active           bool       `db:"active"            json:"active"`
	CreatedAt        time.Time  `db:"created_at"        json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"        json:"updated_at"`
}
