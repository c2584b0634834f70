// Package moderation scores content safety, bias and legal exposure and
// classifies it into a moderation status.
package moderation

import (
	"context"
	"fmt"

	infralogger "github.com/jonesrussell/north-cloud/quality-engine/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/patterns"
)

const (
	blockedBelow      = 30
	unsafeBelow       = 60
	reviewBelow       = 80
	autoApproveSafety = 90

	maxLinks            = 5
	maxShoutingRuns     = 3
	spamIssueConfidence = 0.6
)

// Issue types.
const (
	IssueContent  = "content"
	IssueCultural = "cultural"
	IssueBias     = "bias"
	IssueLegal    = "legal"
	IssueSpam     = "spam"
)

// Moderator scans content for unsafe material. Safe for concurrent use.
type Moderator struct {
	logger infralogger.Logger
}

// New creates a Moderator.
func New(logger infralogger.Logger) *Moderator {
	return &Moderator{logger: logger}
}

// Moderate scans the title and body of content.
func (m *Moderator) Moderate(ctx context.Context, content *domain.ContentInput) (*domain.ModerationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("moderate content: %w", err)
	}

	text := content.Title + "\n\n" + patterns.PlainText(content.Body)

	issues := patterns.Issues(patterns.Moderation().Scan(text), IssueContent)
	issues = append(issues, spamIssues(text, content.FullText())...)
	issues = append(issues, concerns(patterns.Cultural().Scan(text), IssueCultural)...)

	biasMatches := patterns.Bias().Scan(text)
	issues = append(issues, concerns(biasMatches, IssueBias)...)

	legalMatches := patterns.Legal().Scan(text)
	issues = append(issues, patterns.Issues(legalMatches, IssueLegal)...)

	result := &domain.ModerationResult{
		IssueScore: issueScore(issues),
		Bias:       analyzeBias(biasMatches),
		Legal:      assessLegal(legalMatches),
		Issues:     issues,
	}
	result.SafetyScore = domain.RoundScore(
		(result.IssueScore + result.Bias.OverallBiasScore + result.Legal.OverallComplianceScore) / 3)
	result.Status = Classify(result.SafetyScore, issues)
	result.AutoAction = AutoAction(result.Status, result.SafetyScore)
	result.RequiresHumanReview = result.Status != domain.ModerationSafe

	m.logger.Debug("Content moderated",
		infralogger.String("content_id", content.ID),
		infralogger.Float64("safety_score", result.SafetyScore),
		infralogger.String("status", string(result.Status)),
		infralogger.Int("issues", len(issues)),
	)
	return result, nil
}

// Classify applies the status precedence: blocked, unsafe, needs_review, safe.
func Classify(safety float64, issues []domain.Issue) domain.ModerationStatus {
	switch {
	case domain.HasSeverity(issues, domain.SeverityCritical) || safety < blockedBelow:
		return domain.ModerationBlocked
	case domain.HasSeverity(issues, domain.SeverityHigh) || safety < unsafeBelow:
		return domain.ModerationUnsafe
	case safety < reviewBelow:
		return domain.ModerationNeedsReview
	default:
		return domain.ModerationSafe
	}
}

// AutoAction derives the automatic action for status. Only safe content at or
// above the approval bar is approved.
func AutoAction(status domain.ModerationStatus, safety float64) domain.ModerationAction {
	switch status {
	case domain.ModerationBlocked:
		return domain.ModerationActionBlock
	case domain.ModerationUnsafe:
		return domain.ModerationActionReject
	case domain.ModerationSafe:
		if safety >= autoApproveSafety {
			return domain.ModerationActionApprove
		}
		return domain.ModerationActionReview
	default:
		return domain.ModerationActionReview
	}
}

// issueScore is 100 less the weighted severity deductions.
func issueScore(issues []domain.Issue) float64 {
	score := float64(domain.MaxScore)
	for _, issue := range issues {
		score -= issue.Severity.Deduction()
	}
	return domain.ClampScore(score)
}

// concerns keeps the matches whose pattern carries a severity; the rest are
// positive signals.
func concerns(matches []patterns.Match, issueType string) []domain.Issue {
	kept := matches[:0:0]
	for _, mt := range matches {
		if mt.Pattern.Severity != "" {
			kept = append(kept, mt)
		}
	}
	return patterns.Issues(kept, issueType)
}

// spamIssues scans the reduced text. Links are counted in raw, which still
// carries href targets.
func spamIssues(text, raw string) []domain.Issue {
	var issues []domain.Issue
	add := func(severity domain.Severity, desc, suggestion string) {
		issues = append(issues, domain.Issue{
			Type:        IssueSpam,
			Category:    patterns.CatSpam,
			Severity:    severity,
			Confidence:  spamIssueConfidence,
			Description: desc,
			Suggestion:  suggestion,
		})
	}

	if n := patterns.DuplicateSentences(text); n > 0 {
		add(domain.SeverityLow, fmt.Sprintf("%d repeated sentences", n), "Remove repeated sentences")
	}
	if n := patterns.LinkCount(raw); n > maxLinks {
		add(domain.SeverityMedium, fmt.Sprintf("%d links exceed the limit of %d", n, maxLinks), "Reduce the number of links")
	}
	if n := patterns.ShoutingRuns(text); n > maxShoutingRuns {
		add(domain.SeverityLow, fmt.Sprintf("%d all-caps words", n), "Avoid writing words in capitals")
	}
	return issues
}
