// Package storage provides the Elasticsearch decision index, the Redis
// fingerprint store and the asynchronous decision writer.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	es "github.com/elastic/go-elasticsearch/v8"

	infraerrors "github.com/jonesrussell/north-cloud/quality-engine/infrastructure/errors"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
)

const (
	// DefaultDecisionIndex is the index decisions are written to.
	DefaultDecisionIndex = "quality_decisions"

	defaultSearchLimit = 20
	maxSearchLimit     = 200
)

const decisionMapping = `{
  "mappings": {
    "dynamic": false,
    "properties": {
      "content_id":          {"type": "keyword"},
      "content_type":        {"type": "keyword"},
      "section":             {"type": "keyword"},
      "decision":            {"type": "keyword"},
      "overall_score":       {"type": "float"},
      "confidence":          {"type": "float"},
      "snapshot_version":    {"type": "long"},
      "assigned_reviewers":  {"type": "keyword"},
      "evaluated_at":        {"type": "date"}
    }
  }
}`

// DecisionQuery filters a decision search. Empty fields match everything.
type DecisionQuery struct {
	Decision    domain.Decision
	ContentType domain.ContentType
	Reviewer    string
	MinScore    *float64
	Limit       int
}

// DecisionIndex stores decisions in Elasticsearch for search by reviewers and publishers.
type DecisionIndex struct {
	client *es.Client
	index  string
}

// NewDecisionIndex creates a decision index; an empty name uses DefaultDecisionIndex.
func NewDecisionIndex(client *es.Client, index string) *DecisionIndex {
	if index == "" {
		index = DefaultDecisionIndex
	}
	return &DecisionIndex{client: client, index: index}
}

// EnsureIndex creates the index with its mapping when it does not exist.
func (s *DecisionIndex) EnsureIndex(ctx context.Context) error {
	exists, err := s.client.Indices.Exists([]string{s.index}, s.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return infraerrors.WrapWithContextf(err, "failed to check index %s", s.index)
	}
	_ = exists.Body.Close()
	if exists.StatusCode == http.StatusOK {
		return nil
	}

	res, err := s.client.Indices.Create(
		s.index,
		s.client.Indices.Create.WithContext(ctx),
		s.client.Indices.Create.WithBody(bytes.NewReader([]byte(decisionMapping))),
	)
	if err != nil {
		return infraerrors.WrapWithContextf(err, "failed to create index %s", s.index)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("error creating index %s: %s", s.index, res.String())
	}
	return nil
}

// IndexDecision writes an already marshaled decision under its content ID,
// replacing any earlier decision for the same content.
func (s *DecisionIndex) IndexDecision(ctx context.Context, contentID string, doc []byte) error {
	res, err := s.client.Index(
		s.index,
		bytes.NewReader(doc),
		s.client.Index.WithContext(ctx),
		s.client.Index.WithDocumentID(contentID),
	)
	if err != nil {
		return infraerrors.WrapWithContextf(err, "failed to index decision %s", contentID)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("error indexing decision %s: %s", contentID, res.String())
	}
	return nil
}

// Search returns decisions matching q, most recent first.
func (s *DecisionIndex) Search(ctx context.Context, q DecisionQuery) ([]domain.QualityDecision, error) {
	body, err := json.Marshal(buildDecisionQuery(q))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, infraerrors.WrapWithContext(err, "failed to search")
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return nil, fmt.Errorf("error searching: %s", res.String())
	}

	var searchResult struct {
		Hits struct {
			Hits []struct {
				ID     string                 `json:"_id"`
				Source domain.QualityDecision `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err = json.NewDecoder(res.Body).Decode(&searchResult); err != nil {
		return nil, fmt.Errorf("error decoding response: %w", err)
	}

	decisions := make([]domain.QualityDecision, 0, len(searchResult.Hits.Hits))
	for _, hit := range searchResult.Hits.Hits {
		d := hit.Source
		if d.ContentID == "" {
			d.ContentID = hit.ID
		}
		decisions = append(decisions, d)
	}
	return decisions, nil
}

func buildDecisionQuery(q DecisionQuery) map[string]any {
	var filters []map[string]any
	term := func(field, value string) {
		if value != "" {
			filters = append(filters, map[string]any{"term": map[string]any{field: value}})
		}
	}
	term("decision", string(q.Decision))
	term("content_type", string(q.ContentType))
	term("assigned_reviewers", q.Reviewer)
	if q.MinScore != nil {
		filters = append(filters, map[string]any{
			"range": map[string]any{"overall_score": map[string]any{"gte": *q.MinScore}},
		})
	}

	query := map[string]any{"match_all": map[string]any{}}
	if len(filters) > 0 {
		query = map[string]any{"bool": map[string]any{"filter": filters}}
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	limit = min(limit, maxSearchLimit)

	return map[string]any{
		"query": query,
		"size":  limit,
		"sort": []map[string]any{
			{"evaluated_at": map[string]any{"order": "desc"}},
		},
	}
}
