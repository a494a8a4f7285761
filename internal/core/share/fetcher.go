// Package share retrieves projects published to the share service.
// Nothing fetched here is cached: every call goes to the network.
package share

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-project-history/internal/core/model"
	"github.com/penwyp/go-project-history/internal/util"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultBaseURL is the public share service
	DefaultBaseURL = "https://makecode.com"
	DefaultTimeout = 30 * time.Second
	maxBodyBytes   = 32 << 20
)

// ErrUnexpectedStatus is returned when the share service answers with a non-200 status
var ErrUnexpectedStatus = errors.New("unexpected status code")

// Fetcher retrieves the project behind a share entry
type Fetcher interface {
	FetchShare(ctx context.Context, entry model.ShareEntry) (model.ReconstructedProject, error)
}

// Meta is the metadata the share service keeps for a published project
type Meta struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	TargetVersions TargetVersions `json:"targetVersions"`
}

// TargetVersions records the editor the project was published from
type TargetVersions struct {
	Target string `json:"target"`
}

// HTTPFetcher implements Fetcher against the share service's REST API
type HTTPFetcher struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPFetcher creates a fetcher; an empty baseURL selects DefaultBaseURL
func NewHTTPFetcher(baseURL string) *HTTPFetcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &HTTPFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// WithHTTPClient replaces the HTTP client
func (f *HTTPFetcher) WithHTTPClient(client *http.Client) *HTTPFetcher {
	f.httpClient = client
	return f
}

// WithTimeout sets the per-request timeout; zero keeps the current one
func (f *HTTPFetcher) WithTimeout(timeout time.Duration) *HTTPFetcher {
	if timeout > 0 {
		f.httpClient.Timeout = timeout
	}
	return f
}

// FetchShare downloads the file contents and the metadata of a share concurrently.
// Both must succeed; any failure is reported as a *model.ShareFetchError.
func (f *HTTPFetcher) FetchShare(ctx context.Context, entry model.ShareEntry) (model.ReconstructedProject, error) {
	util.LogDebugf("Fetching share %s (recorded at %d)", entry.ID, entry.Timestamp)

	var (
		files model.ProjectFileSet
		meta  Meta
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := f.getJSON(gctx, f.endpoint(entry.ID, "text"), &files); err != nil {
			return &model.ShareFetchError{ID: entry.ID, Op: "text", Err: err}
		}
		return nil
	})
	g.Go(func() error {
		if err := f.getJSON(gctx, f.endpoint(entry.ID, ""), &meta); err != nil {
			return &model.ShareFetchError{ID: entry.ID, Op: "meta", Err: err}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		util.LogDebugf("Share fetch failed: %v", err)
		return model.ReconstructedProject{}, err
	}

	if files == nil {
		files = model.ProjectFileSet{}
	}
	util.LogDebugf("Fetched share %s: %d files, target %s", entry.ID, len(files), meta.TargetVersions.Target)
	return model.ReconstructedProject{Files: files, EditorVersion: meta.TargetVersions.Target}, nil
}

func (f *HTTPFetcher) endpoint(id, suffix string) string {
	u := f.baseURL + "/api/" + url.PathEscape(id)
	if suffix != "" {
		u += "/" + suffix
	}
	return u
}

func (f *HTTPFetcher) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if err := sonic.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
