// Package github is a small client for the parts of the GitHub REST API the
// analyzer reads.
package github

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/localrivet/reporeader/internal/errortypes"
	"github.com/localrivet/reporeader/internal/telemetry"
)

const (
	// DefaultBaseURL is the public GitHub API root.
	DefaultBaseURL = "https://api.github.com"

	// DefaultRequestsPerSecond bounds outgoing requests per client.
	DefaultRequestsPerSecond = 10

	// MaxContributors is the number of contributors returned by GetContributors.
	MaxContributors = 10

	userAgent       = "GitHub-Repo-Reader"
	acceptHeader    = "application/vnd.github.v3+json"
	requestTimeout  = 10 * time.Second
	maxResponseSize = 8 << 20
)

// ErrNotText is returned by GetFileContent for files that are not UTF-8 text.
var ErrNotText = errors.New("file content is not utf-8 text")

// Options configure a Client.
type Options struct {
	Token             string
	BaseURL           string
	RequestsPerSecond float64
	HTTPClient        *http.Client
	Logger            *slog.Logger
	Metrics           *telemetry.MetricsCollector
}

// Client talks to the GitHub REST API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
	metrics    *telemetry.MetricsCollector
}

// NewClient creates a Client. An empty token makes anonymous requests.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: requestTimeout}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = telemetry.NewMetricsCollector()
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		token:      opts.Token,
		httpClient: opts.HTTPClient,
		limiter:    rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		logger:     opts.Logger,
		metrics:    opts.Metrics,
	}
}

// Authenticated reports whether requests carry a token.
func (c *Client) Authenticated() bool {
	return c.token != ""
}

// get performs a GET against path and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errortypes.NetworkError(err, "rate limiter wait failed")
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return errortypes.InternalError(err, "failed to create github request")
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}

	c.metrics.IncrementCounter(telemetry.MetricGitHubCalls, 1)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.IncrementCounter(telemetry.MetricGitHubErrors, 1)
		return errortypes.NetworkError(err, "github request failed").WithField("path", path)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		c.metrics.IncrementCounter(telemetry.MetricGitHubErrors, 1)
		return errortypes.NetworkError(err, "failed to read github response").WithField("path", path)
	}

	if resp.StatusCode != http.StatusOK {
		c.metrics.IncrementCounter(telemetry.MetricGitHubErrors, 1)
		return statusError(resp, body, path)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errortypes.APIError(err, "failed to decode github response").WithField("path", path)
	}
	return nil
}

type apiMessage struct {
	Message string `json:"message"`
}

func statusError(resp *http.Response, body []byte, path string) error {
	var msg apiMessage
	_ = json.Unmarshal(body, &msg)
	if msg.Message == "" {
		msg.Message = resp.Status
	}
	cause := fmt.Errorf("github returned %d: %s", resp.StatusCode, msg.Message)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errortypes.NotFoundError(cause, "github resource not found").WithField("path", path)
	case resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0":
		appErr := errortypes.RateLimitError(cause, "github rate limit exceeded").WithField("path", path)
		if reset, err := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64); err == nil {
			appErr.WithField("reset", time.Unix(reset, 0).UTC().Format(time.RFC3339))
		}
		return appErr
	default:
		return errortypes.APIError(cause, "github request failed").
			WithField("path", path).
			WithField("status", resp.StatusCode)
	}
}

func repoPath(owner, repo string) string {
	return "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(repo)
}

func contentPath(owner, repo, path string) string {
	p := repoPath(owner, repo) + "/contents"
	path = strings.Trim(path, "/")
	if path == "" {
		return p + "/"
	}
	segments := strings.Split(path, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return p + "/" + strings.Join(segments, "/")
}

// GetRepo returns repository metadata.
func (c *Client) GetRepo(ctx context.Context, owner, repo string) (*Repository, error) {
	var raw rawRepository
	if err := c.get(ctx, repoPath(owner, repo), nil, &raw); err != nil {
		return nil, err
	}
	return raw.toRepository(), nil
}

// ListContents lists the entries of a directory; an empty path is the root.
func (c *Client) ListContents(ctx context.Context, owner, repo, path string) ([]ContentEntry, error) {
	var entries []ContentEntry
	if err := c.get(ctx, contentPath(owner, repo, path), nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetFileContent returns the decoded text of a file.
func (c *Client) GetFileContent(ctx context.Context, owner, repo, path string) (string, error) {
	var file rawFile
	if err := c.get(ctx, contentPath(owner, repo, path), nil, &file); err != nil {
		return "", err
	}
	if file.Encoding != "base64" {
		return "", errortypes.ValidationError(fmt.Errorf("unsupported encoding %q", file.Encoding), "cannot decode file content").
			WithField("path", path)
	}

	// GitHub wraps base64 content at 60 columns.
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(file.Content, "\n", ""))
	if err != nil {
		return "", errortypes.ValidationError(err, "invalid base64 file content").WithField("path", path)
	}
	if !utf8.Valid(decoded) {
		return "", ErrNotText
	}
	return string(decoded), nil
}

// GetRecentCommits returns up to limit commits from the default branch.
func (c *Client) GetRecentCommits(ctx context.Context, owner, repo string, limit int) ([]Commit, error) {
	if limit <= 0 {
		limit = 10
	}
	query := url.Values{"per_page": {strconv.Itoa(limit)}}

	var raw []rawCommit
	if err := c.get(ctx, repoPath(owner, repo)+"/commits", query, &raw); err != nil {
		return nil, err
	}

	commits := make([]Commit, 0, len(raw))
	for _, r := range raw {
		commits = append(commits, r.toCommit())
	}
	return commits, nil
}

// GetContributors returns the top contributors.
func (c *Client) GetContributors(ctx context.Context, owner, repo string) ([]Contributor, error) {
	var contributors []Contributor
	if err := c.get(ctx, repoPath(owner, repo)+"/contributors", nil, &contributors); err != nil {
		return nil, err
	}
	if len(contributors) > MaxContributors {
		contributors = contributors[:MaxContributors]
	}
	return contributors, nil
}

// GetRateLimit returns the core API quota.
func (c *Client) GetRateLimit(ctx context.Context) (*RateLimit, error) {
	var raw rawRateLimit
	if err := c.get(ctx, "/rate_limit", nil, &raw); err != nil {
		return nil, err
	}
	core := raw.Resources.Core
	return &RateLimit{
		Limit:     core.Limit,
		Remaining: core.Remaining,
		Reset:     core.Reset,
		ResetTime: time.Unix(core.Reset, 0),
	}, nil
}
