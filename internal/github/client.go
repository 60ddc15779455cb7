// Package github resolves plugin releases from the GitHub releases API
// and selects the downloadable asset for the running architecture.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/zjrosen/plugman/internal/fsretry"
	"github.com/zjrosen/plugman/internal/log"
)

const (
	userAgent       = "plugman"
	acceptHeader    = "application/vnd.github+json"
	apiVersion      = "2022-11-28"
	apiVersionField = "X-GitHub-Api-Version"

	// Release metadata is cached per URL so batch commands that touch the
	// same repository twice (import, update --all, outdated) hit the API once.
	cacheTTL     = 30 * time.Second
	cacheCleanup = time.Minute
)

var (
	// ErrNotFound indicates the repository or tag has no such release.
	ErrNotFound = errors.New("release not found")

	// ErrDecode indicates the API response body did not parse.
	ErrDecode = errors.New("malformed release response")
)

// StatusError is a non-success response from the release API.
type StatusError struct {
	StatusCode int
	Reason     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("release request failed: %s", e.Reason)
}

// Is matches ErrNotFound for 404 responses.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Release is the metadata of one tagged release. Ephemeral: produced per
// resolution call, never persisted.
type Release struct {
	TagName string  `json:"tag_name"`
	Assets  []Asset `json:"assets"`
}

// Asset is a single downloadable file attached to a release.
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// Client talks to the release API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	cache      *gocache.Cache
}

// NewClient creates a release API client. token may be empty.
func NewClient(baseURL, token string) *Client {
	return &Client{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		cache:      gocache.New(cacheTTL, cacheCleanup),
	}
}

// Resolve fetches release metadata for repo. With a tag it fetches that
// exact tagged release, otherwise the most recent release.
func (c *Client) Resolve(ctx context.Context, repo, tag string) (*Release, error) {
	url := c.baseURL + "/repos/" + repo + "/releases/latest"
	if tag != "" {
		url = c.baseURL + "/repos/" + repo + "/releases/tags/" + tag
	}

	if cached, ok := c.cache.Get(url); ok {
		if rel, ok := cached.(*Release); ok {
			log.Debug(log.CatAPI, "release cache hit", "url", url)
			return rel, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building release request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set(apiVersionField, apiVersion)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching release: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		reason := http.StatusText(res.StatusCode)
		if reason == "" {
			reason = "Unknown"
		}
		log.Warn(log.CatAPI, "release request failed", "url", url, "status", res.StatusCode)
		return nil, &StatusError{StatusCode: res.StatusCode, Reason: reason}
	}

	var rel Release
	if err := json.NewDecoder(res.Body).Decode(&rel); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	log.Debug(log.CatAPI, "release resolved", "repo", repo, "tag", rel.TagName, "assets", len(rel.Assets))
	c.cache.Set(url, &rel, cacheTTL)
	return &rel, nil
}

// Download streams the asset at url to dest. Bytes are written through
// the retrying copier since dest lives inside the plugin directory.
func (c *Client) Download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building download request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("downloading asset: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		reason := http.StatusText(res.StatusCode)
		if reason == "" {
			reason = "Unknown"
		}
		return &StatusError{StatusCode: res.StatusCode, Reason: reason}
	}

	out, err := os.Create(dest) //nolint:gosec // G304: dest is inside the configured plugin directory
	if err != nil {
		return fmt.Errorf("creating asset file: %w", err)
	}

	n, err := fsretry.Copy(out, res.Body)
	if closeErr := out.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(dest)
		return fmt.Errorf("writing asset file: %w", err)
	}

	log.Debug(log.CatAsset, "asset downloaded", "url", url, "bytes", n)
	return nil
}
