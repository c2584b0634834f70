package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
)

const validRules = `
rules:
  - name: Headline length
    priority: low
    active: true
    conditions:
      - field: content.title_length
        operator: lte
        value: 120
        weight: 1
  - name: Readable body
    priority: medium
    active: true
    conditions:
      - field: assessment.readability
        operator: gte
        value: 60
        weight: 1
    actions:
      - action_type: add_recommendation
        parameters:
          text: Shorten long sentences
`

const invalidRules = `
rules:
  - name: Mood
    priority: low
    conditions:
      - field: content.mood
        operator: eq
        value: happy
        weight: 1
  - name: Headline length
    priority: low
    conditions:
      - field: content.title_length
        operator: lte
        value: 120
        weight: 1
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "missing.yml")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestParseContent(t *testing.T) {
	t.Parallel()

	single, err := parseContent([]byte(`{"id":"a","title":"T","body":"B"}`))
	require.NoError(t, err)
	require.Len(t, single, 1)
	assert.Equal(t, "a", single[0].ID)

	many, err := parseContent([]byte("  \n[{\"id\":\"a\"},{\"id\":\"b\"}]"))
	require.NoError(t, err)
	assert.Len(t, many, 2)

	_, err = parseContent([]byte(`{"id":`))
	require.Error(t, err)
}

func TestValidateRuleFile(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	require.NoError(t, validateRuleFile(&out, []byte(validRules)))
	assert.Equal(t, 2, strings.Count(out.String(), "OK\t"))

	out.Reset()
	err := validateRuleFile(&out, []byte(invalidRules))
	require.ErrorIs(t, err, errInvalidRules)
	assert.Contains(t, out.String(), "INVALID")
	assert.Contains(t, out.String(), "content.mood")
	assert.Contains(t, out.String(), "OK\tHeadline length")

	err = validateRuleFile(&out, []byte("rules: []"))
	require.ErrorIs(t, err, errInvalidRules)
}

func TestEvaluateCommand(t *testing.T) {
	path := writeFile(t, "article.json", `{
		"id": "cli-1",
		"title": "Dubai Metro extends weekend service hours",
		"body": "The Roads and Transport Authority announced that the Dubai Metro will run until 2 a.m. on Fridays and Saturdays starting next month.",
		"content_type": "news"
	}`)

	out, err := execute(t, "evaluate", path)
	require.NoError(t, err)

	var got decisionOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got), out)
	assert.Equal(t, "cli-1", got.ContentID)
	require.NotNil(t, got.Decision)
	assert.Equal(t, domain.SectionNews, got.Decision.Section)
	assert.NotEmpty(t, got.Decision.RuleResults)
}

func TestEvaluateCommand_SummaryReportsInvalidItems(t *testing.T) {
	path := writeFile(t, "batch.json", `[
		{"id": "ok", "title": "Museum of the Future opens new exhibit", "body": "Visitors can explore the exhibit daily."},
		{"id": "bad", "title": "", "body": "No title"}
	]`)

	out, err := execute(t, "evaluate", "--summary", path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "ok\t"))
	assert.True(t, strings.HasPrefix(lines[1], "bad\terror\t"))
}

func TestRulesFieldsCommand(t *testing.T) {
	out, err := execute(t, "rules", "fields")
	require.NoError(t, err)
	assert.Contains(t, out, "content.title_length")
	assert.Contains(t, out, "fact_check.confidence")
}
