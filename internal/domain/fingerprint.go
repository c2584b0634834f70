package domain

import "time"

// HashKind names one of the fingerprint hashes usable for lookups.
type HashKind string

const (
	HashContent  HashKind = "content"
	HashTitle    HashKind = "title"
	HashSemantic HashKind = "semantic"
	HashURL      HashKind = "url"
)

// Fingerprint is the set of signatures used to find duplicates.
type Fingerprint struct {
	ContentID    string      `db:"content_id"    json:"content_id"`
	ContentType  ContentType `db:"content_type"  json:"content_type"`
	ContentHash  string      `db:"content_hash"  json:"content_hash"`
	TitleHash    string      `db:"title_hash"    json:"title_hash"`
	SemanticHash string      `db:"semantic_hash" json:"semantic_hash"`
	ImageHashes  []string    `db:"image_hashes"  json:"image_hashes,omitempty"`
	URLHash      string      `db:"url_hash"      json:"url_hash,omitempty"`
	KeyPhrases   []string    `db:"key_phrases"   json:"key_phrases"`
	ClusterID    string      `db:"cluster_id"    json:"cluster_id,omitempty"`
	CreatedAt    time.Time   `db:"created_at"    json:"created_at"`
}

// Hash returns the hash of the given kind.
func (f *Fingerprint) Hash(kind HashKind) string {
	switch kind {
	case HashContent:
		return f.ContentHash
	case HashTitle:
		return f.TitleHash
	case HashSemantic:
		return f.SemanticHash
	case HashURL:
		return f.URLHash
	default:
		return ""
	}
}

// DuplicateCluster groups fingerprints of mutually similar content.
type DuplicateCluster struct {
	ID         string   `json:"id"`
	ContentIDs []string `json:"content_ids"`
	KeyPhrases []string `json:"key_phrases"`
}
