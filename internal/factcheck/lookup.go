package factcheck

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jonesrussell/north-cloud/quality-engine/infrastructure/circuitbreaker"
	infraerrors "github.com/jonesrussell/north-cloud/quality-engine/infrastructure/errors"
	infrahttp "github.com/jonesrussell/north-cloud/quality-engine/infrastructure/http"
	infralogger "github.com/jonesrussell/north-cloud/quality-engine/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/quality-engine/infrastructure/ratelimit"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/patterns"
)

// Verdict is a source's position on a claim.
type Verdict string

const (
	VerdictSupports    Verdict = "supports"
	VerdictContradicts Verdict = "contradicts"
	VerdictUnknown     Verdict = "unknown"
)

// SourceLookup asks one trusted source about one claim.
type SourceLookup interface {
	Lookup(ctx context.Context, claim Claim, source domain.TrustedSource) (Verdict, error)
}

const minKeywordOverlap = 2

// KeywordLookup treats a source as supporting a claim when the claim mentions
// at least two of the source's keywords, or its only keyword. It never
// contradicts.
type KeywordLookup struct{}

// Lookup implements SourceLookup without I/O.
func (KeywordLookup) Lookup(_ context.Context, claim Claim, source domain.TrustedSource) (Verdict, error) {
	if len(source.Keywords) == 0 {
		return VerdictUnknown, nil
	}
	hits := 0
	for _, kw := range source.Keywords {
		if patterns.ContainsWord(claim.Text, kw) {
			hits++
		}
	}
	if hits >= min(minKeywordOverlap, len(source.Keywords)) {
		return VerdictSupports, nil
	}
	return VerdictUnknown, nil
}

const (
	defaultLookupTimeout = 5 * time.Second
	lookupBreakerName    = "fact-lookup"
	lookupUserAgent      = "north-cloud-quality-engine/1.0"
)

// HTTPLookup posts claims to a verification service. Calls are rate limited
// and guarded by a circuit breaker.
type HTTPLookup struct {
	endpoint string
	client   *http.Client
	limiter  *ratelimit.Limiter
	breaker  *circuitbreaker.Breaker
	logger   infralogger.Logger
}

// HTTPLookupConfig configures an HTTPLookup.
type HTTPLookupConfig struct {
	Endpoint         string
	Timeout          time.Duration
	RequestsPerSec   int
	FailureThreshold int
	OpenTimeout      time.Duration
}

// NewHTTPLookup creates an HTTPLookup.
func NewHTTPLookup(cfg HTTPLookupConfig, logger infralogger.Logger) *HTTPLookup {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultLookupTimeout
	}
	return &HTTPLookup{
		endpoint: cfg.Endpoint,
		client:   infrahttp.NewClient(infrahttp.ClientConfig{Timeout: timeout, UserAgent: lookupUserAgent}),
		limiter:  ratelimit.New(cfg.RequestsPerSec, 0, logger),
		breaker: circuitbreaker.New(circuitbreaker.Config{
			Name:             lookupBreakerName,
			FailureThreshold: cfg.FailureThreshold,
			Timeout:          cfg.OpenTimeout,
			OnStateChange: func(name string, from, to circuitbreaker.State) {
				logger.Warn("Circuit breaker state changed",
					infralogger.String("breaker", name),
					infralogger.String("from", from.String()),
					infralogger.String("to", to.String()),
				)
			},
		}),
		logger: logger,
	}
}

type lookupRequest struct {
	Claim     string           `json:"claim"`
	ClaimType domain.ClaimType `json:"claim_type"`
	SourceID  string           `json:"source_id"`
	SourceURL string           `json:"source_url"`
}

type lookupResponse struct {
	Verdict Verdict `json:"verdict"`
}

// Lookup implements SourceLookup over HTTP.
func (h *HTTPLookup) Lookup(ctx context.Context, claim Claim, source domain.TrustedSource) (Verdict, error) {
	if err := h.limiter.Wait(ctx); err != nil {
		return VerdictUnknown, err
	}

	verdict := VerdictUnknown
	err := h.breaker.Execute(ctx, func() error {
		v, callErr := h.call(ctx, lookupRequest{
			Claim:     claim.Text,
			ClaimType: claim.Type,
			SourceID:  source.ID,
			SourceURL: source.URL,
		})
		if code, ok := infraerrors.StatusCode(callErr); ok && code == http.StatusNotFound {
			// The service has no record of this source.
			return nil
		}
		if callErr != nil {
			return callErr
		}
		verdict = v
		return nil
	})
	if err != nil {
		return VerdictUnknown, fmt.Errorf("lookup %s: %w", source.ID, err)
	}
	return verdict, nil
}

func (h *HTTPLookup) call(ctx context.Context, body lookupRequest) (Verdict, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return VerdictUnknown, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(payload))
	if err != nil {
		return VerdictUnknown, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return VerdictUnknown, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if httpErr := infraerrors.ParseHTTPError(resp); httpErr != nil {
		return VerdictUnknown, httpErr
	}

	var out lookupResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&out); decodeErr != nil {
		return VerdictUnknown, fmt.Errorf("decode response: %w", decodeErr)
	}
	switch out.Verdict {
	case VerdictSupports, VerdictContradicts:
		return out.Verdict, nil
	default:
		return VerdictUnknown, nil
	}
}
