package pypi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"
	"github.com/hashicorp/go-retryablehttp"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/bumper/domain"
)

const (
	defaultBaseURL = "https://pypi.org/pypi"
	defaultTimeout = 15 * time.Second
	retryMax       = 2
)

// packageInfo is the subset of the index's JSON metadata the bumper needs.
type packageInfo struct {
	Info struct {
		Name        string `json:"name"`
		Version     string `json:"version"`
		HomePage    string `json:"home_page"`
		DocsURL     string `json:"docs_url"`
		Description string `json:"description"`
	} `json:"info"`
	Releases map[string]json.RawMessage `json:"releases"`
}

// Client implements domain.PackageIndex against a PyPI-compatible JSON API.
// Package metadata is cached per client, so lookups within one driver run
// are deterministic and hit the network once per package.
type Client struct {
	http    *retryablehttp.Client
	github  *github.Client
	baseURL string

	// nil entry = known-missing package
	cache map[string]*packageInfo
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different index URL.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = strings.TrimSuffix(url, "/")
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.http.HTTPClient.Timeout = timeout
		}
	}
}

// WithGitHubToken authenticates changelog lookups against the GitHub API.
func WithGitHubToken(token string) Option {
	return func(c *Client) {
		if token != "" {
			c.github = c.github.WithAuthToken(token)
		}
	}
}

// New creates an index client.
func New(opts ...Option) *Client {
	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = retryMax
	httpClient.HTTPClient.Timeout = defaultTimeout
	httpClient.Logger = nil

	c := &Client{
		http:    httpClient,
		github:  github.NewClient(nil),
		baseURL: defaultBaseURL,
		cache:   make(map[string]*packageInfo),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LatestVersion returns the latest published version of a package, or an
// empty string when the package is unknown to the index.
func (c *Client) LatestVersion(ctx context.Context, name string) (string, error) {
	info, err := c.packageInfo(ctx, name)
	if err != nil || info == nil {
		return "", err
	}
	return info.Info.Version, nil
}

// AllVersions returns every published version, newest first.
func (c *Client) AllVersions(ctx context.Context, name string) ([]string, error) {
	info, err := c.packageInfo(ctx, name)
	if err != nil || info == nil {
		return nil, err
	}

	versions := make([]string, 0, len(info.Releases))
	for version := range info.Releases {
		versions = append(versions, version)
	}
	domain.SortVersionsDescending(versions)
	return versions, nil
}

// packageInfo fetches and caches the index metadata for a package.
// A package the index does not know is cached as nil, not an error.
func (c *Client) packageInfo(ctx context.Context, name string) (*packageInfo, error) {
	if info, ok := c.cache[name]; ok {
		return info, nil
	}

	url := fmt.Sprintf("%s/%s/json", c.baseURL, name)

	body, err := c.get(ctx, url)
	if err != nil {
		logger.Debugf("Could not get package info from %s: %v", url, err)
		c.cache[name] = nil
		return nil, nil
	}

	var info packageInfo
	if unmarshalErr := json.Unmarshal(body, &info); unmarshalErr != nil {
		logger.Debugf("Could not parse package info from %s: %v", url, unmarshalErr)
		c.cache[name] = nil
		return nil, nil
	}

	c.cache[name] = &info
	return &info, nil
}

// get performs a GET request and returns the response body on a 2xx status.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s: unexpected status %d", url, resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
