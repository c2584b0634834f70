// Package elasticsearch builds the go-elasticsearch client used for the decision search index.
package elasticsearch

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"

	infralogger "github.com/jonesrussell/north-cloud/quality-engine/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/quality-engine/infrastructure/retry"
)

const (
	defaultURL         = "http://localhost:9200"
	defaultMaxRetries  = 3
	defaultPingTimeout = 5 * time.Second
)

// Config holds Elasticsearch client configuration.
type Config struct {
	URL                string        `env:"ELASTICSEARCH_URL"      yaml:"url"`
	Username           string        `env:"ELASTICSEARCH_USERNAME" yaml:"username"`
	Password           string        `env:"ELASTICSEARCH_PASSWORD" yaml:"password"` //nolint:gosec // ES credentials
	APIKey             string        `env:"ELASTICSEARCH_API_KEY"  yaml:"api_key"`
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify"`
	MaxRetries         int           `yaml:"max_retries"`
	PingTimeout        time.Duration `yaml:"ping_timeout"`
	// Connect controls the connection verification retry loop; zero uses retry.DefaultConfig.
	Connect retry.Config `yaml:"-"`
}

// SetDefaults applies default values to the config if not set.
func (c *Config) SetDefaults() {
	c.URL = normalizeURL(c.URL)
	if c.MaxRetries == 0 {
		c.MaxRetries = defaultMaxRetries
	}
	if c.PingTimeout == 0 {
		c.PingTimeout = defaultPingTimeout
	}
	if c.Connect.MaxAttempts == 0 {
		c.Connect = retry.DefaultConfig()
		c.Connect.IsRetryable = retry.AlwaysRetry
	}
}

// NewClient creates a client and verifies the connection, retrying with backoff.
func NewClient(ctx context.Context, cfg Config, log infralogger.Logger) (*es.Client, error) {
	cfg.SetDefaults()

	clientConfig := es.Config{
		Addresses:  []string{cfg.URL},
		MaxRetries: cfg.MaxRetries,
	}
	if strings.HasPrefix(cfg.URL, "https://") {
		clientConfig.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify}, //nolint:gosec // opt-in for dev clusters
		}
	}
	switch {
	case cfg.APIKey != "":
		clientConfig.APIKey = cfg.APIKey
	case cfg.Username != "" && cfg.Password != "":
		clientConfig.Username = cfg.Username
		clientConfig.Password = cfg.Password
	}

	client, err := es.NewClient(clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	log.Info("Verifying Elasticsearch connection", infralogger.String("url", cfg.URL))

	if err = retry.Retry(ctx, cfg.Connect, func() error {
		return ping(ctx, client, cfg.PingTimeout)
	}); err != nil {
		return nil, fmt.Errorf("failed to connect to Elasticsearch after retries: %w", err)
	}

	log.Info("Elasticsearch connection established", infralogger.String("url", cfg.URL))
	return client, nil
}

func normalizeURL(url string) string {
	if url == "" {
		return defaultURL
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return "http://" + url
	}
	return url
}

func ping(ctx context.Context, client *es.Client, timeout time.Duration) error {
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := client.Ping(client.Ping.WithContext(pingCtx))
	if err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("ping returned error [%s]: %s", res.Status(), string(body))
	}
	return nil
}
