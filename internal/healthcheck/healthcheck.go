// Package healthcheck verifies the GitHub and Hugging Face credentials by
// calling each service once. It is opt-in: the calls count against quotas.
package healthcheck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/localrivet/reporeader/internal/errortypes"
	"github.com/localrivet/reporeader/internal/github"
)

// Status is the outcome of one credential check.
type Status string

const (
	StatusHealthy       Status = "healthy"
	StatusWarning       Status = "warning"
	StatusCritical      Status = "critical"
	StatusRateLimited   Status = "rate_limited"
	StatusNotConfigured Status = "not_configured"
	StatusTimeout       Status = "timeout"
	StatusError         Status = "error"
)

// Thresholds on the remaining GitHub quota and on response time.
const (
	RemainingWarning  = 100
	RemainingCritical = 10
	SlowResponse      = 5 * time.Second

	// DefaultWhoAmIURL answers 200 for a valid Hugging Face token.
	DefaultWhoAmIURL = "https://huggingface.co/api/whoami-v2"

	checkTimeout = 10 * time.Second
)

// Check is the result for one service.
type Check struct {
	Service        string   `json:"service"`
	Status         Status   `json:"status"`
	ResponseTimeMs float64  `json:"response_time_ms"`
	Remaining      *int     `json:"remaining,omitempty"`
	Limit          *int     `json:"limit,omitempty"`
	Account        string   `json:"account,omitempty"`
	Errors         []string `json:"errors,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`
}

// RateLimitSource reports the GitHub core quota.
type RateLimitSource interface {
	Authenticated() bool
	GetRateLimit(ctx context.Context) (*github.RateLimit, error)
}

// Options configure a Checker.
type Options struct {
	GitHub           RateLimitSource
	HuggingFaceToken string
	WhoAmIURL        string
	HTTPClient       *http.Client
}

// Checker runs the credential checks.
type Checker struct {
	github     RateLimitSource
	hfToken    string
	whoAmIURL  string
	httpClient *http.Client
	now        func() time.Time
}

// New creates a Checker.
func New(opts Options) *Checker {
	if opts.WhoAmIURL == "" {
		opts.WhoAmIURL = DefaultWhoAmIURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: checkTimeout}
	}
	return &Checker{
		github:     opts.GitHub,
		hfToken:    opts.HuggingFaceToken,
		whoAmIURL:  opts.WhoAmIURL,
		httpClient: opts.HTTPClient,
		now:        time.Now,
	}
}

// Run checks GitHub then Hugging Face.
func (c *Checker) Run(ctx context.Context) []Check {
	return []Check{c.CheckGitHub(ctx), c.CheckHuggingFace(ctx)}
}

// CheckGitHub reads the rate limit with the configured token.
func (c *Checker) CheckGitHub(ctx context.Context) Check {
	check := Check{Service: "github"}
	if c.github == nil || !c.github.Authenticated() {
		check.Status = StatusNotConfigured
		check.Errors = []string{"No GitHub token configured"}
		return check
	}

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	start := c.now()
	rl, err := c.github.GetRateLimit(ctx)
	elapsed := c.now().Sub(start)
	check.ResponseTimeMs = toMillis(elapsed)
	if err != nil {
		check.Status = failureStatus(err)
		check.Errors = []string{err.Error()}
		return check
	}

	check.Remaining = &rl.Remaining
	check.Limit = &rl.Limit
	switch {
	case rl.Remaining == 0:
		check.Status = StatusRateLimited
		check.Errors = []string{"Rate limit exceeded"}
	case rl.Remaining < RemainingCritical:
		check.Status = StatusCritical
		check.Warnings = []string{fmt.Sprintf("Only %d requests remaining", rl.Remaining)}
	case rl.Remaining < RemainingWarning:
		check.Status = StatusWarning
		check.Warnings = []string{fmt.Sprintf("Low rate limit: %d requests remaining", rl.Remaining)}
	default:
		check.Status = StatusHealthy
	}
	c.flagSlow(&check, elapsed)
	return check
}

type whoAmI struct {
	Name string `json:"name"`
}

// CheckHuggingFace validates the token against the whoami endpoint. It does
// not call a model.
func (c *Checker) CheckHuggingFace(ctx context.Context) Check {
	check := Check{Service: "huggingface"}
	if c.hfToken == "" {
		check.Status = StatusNotConfigured
		check.Errors = []string{"No Hugging Face token configured"}
		return check
	}

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.whoAmIURL, nil)
	if err != nil {
		check.Status = StatusError
		check.Errors = []string{err.Error()}
		return check
	}
	req.Header.Set("Authorization", "Bearer "+c.hfToken)

	start := c.now()
	resp, err := c.httpClient.Do(req)
	elapsed := c.now().Sub(start)
	check.ResponseTimeMs = toMillis(elapsed)
	if err != nil {
		check.Status = failureStatus(err)
		check.Errors = []string{err.Error()}
		return check
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	switch resp.StatusCode {
	case http.StatusOK:
		var who whoAmI
		if err := json.Unmarshal(body, &who); err == nil {
			check.Account = who.Name
		}
		check.Status = StatusHealthy
	case http.StatusUnauthorized, http.StatusForbidden:
		check.Status = StatusError
		check.Errors = []string{"Hugging Face token rejected"}
	case http.StatusTooManyRequests:
		check.Status = StatusRateLimited
		check.Errors = []string{"Hugging Face rate limit exceeded"}
	default:
		check.Status = StatusError
		check.Errors = []string{fmt.Sprintf("HTTP %d: %s", resp.StatusCode, snippet(body))}
	}
	c.flagSlow(&check, elapsed)
	return check
}

func (c *Checker) flagSlow(check *Check, elapsed time.Duration) {
	if elapsed > SlowResponse {
		check.Warnings = append(check.Warnings, fmt.Sprintf("Slow response time: %.2fs", elapsed.Seconds()))
	}
}

func failureStatus(err error) Status {
	if errors.Is(err, context.DeadlineExceeded) {
		return StatusTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return StatusTimeout
	}
	if errortypes.IsRateLimitError(err) {
		return StatusRateLimited
	}
	return StatusError
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 100 {
		return s[:100]
	}
	return s
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
