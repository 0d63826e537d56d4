package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/matsen/tablebot/internal/table"
)

const (
	// DefaultRemoteTimeout is the HTTP timeout for remote database requests.
	DefaultRemoteTimeout = 30 * time.Second

	// DefaultRemoteRateLimit caps requests per second against the remote database.
	DefaultRemoteRateLimit = 10.0

	// remoteRoot is the top-level path tables live under.
	remoteRoot = "servers"
)

// ErrRemote indicates the remote database answered with an error status.
var ErrRemote = errors.New("remote database error")

// RemoteError carries the status and body of a failed remote request.
type RemoteError struct {
	StatusCode int
	Path       string
	Message    string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote database error (status %d) at %s: %s", e.StatusCode, e.Path, e.Message)
}

func (e *RemoteError) Is(target error) bool {
	return target == ErrRemote
}

// RemoteStore addresses tables in a hierarchical key-value database over its
// REST interface (Firebase Realtime Database layout). Each table lives at
// servers/{scope}/{name} with {columns, rows} at the leaf.
type RemoteStore struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	secret     string
}

// RemoteOption configures a RemoteStore.
type RemoteOption func(*RemoteStore)

// WithSecret sets the database secret or ID token sent as the auth parameter.
func WithSecret(secret string) RemoteOption {
	return func(s *RemoteStore) {
		s.secret = secret
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) RemoteOption {
	return func(s *RemoteStore) {
		s.httpClient = hc
	}
}

// WithRateLimit sets the request rate in requests per second.
func WithRateLimit(perSecond float64) RemoteOption {
	return func(s *RemoteStore) {
		if perSecond > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// NewRemoteStore creates a RemoteStore rooted at baseURL
// (e.g. https://example-default-rtdb.firebaseio.com).
func NewRemoteStore(baseURL string, opts ...RemoteOption) *RemoteStore {
	s := &RemoteStore{
		httpClient: &http.Client{Timeout: DefaultRemoteTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRemoteRateLimit), 1),
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// remoteTable is the leaf document.
type remoteTable struct {
	Columns  []string   `json:"columns"`
	Rows     [][]string `json:"rows"`
	RowCount int        `json:"row_count"`
}

// Read implements table.Store.
func (s *RemoteStore) Read(ctx context.Context, scope, name string) (table.Table, bool, error) {
	body, err := s.do(ctx, http.MethodGet, s.path(scope, name), nil, nil)
	if err != nil {
		return table.Table{}, false, err
	}

	var leaf *remoteTable
	if err := json.Unmarshal(body, &leaf); err != nil {
		return table.Table{}, false, fmt.Errorf("parsing table %s/%s: %w", scope, name, err)
	}
	if leaf == nil {
		return table.Table{}, false, nil
	}

	t := table.Table{Columns: leaf.Columns, Rows: leaf.Rows}
	// Rows with no cells are dropped by the database, nested ones included.
	// They only occur in a table without columns, so padding to the stored
	// count restores them.
	for len(t.Rows) < leaf.RowCount {
		t.Rows = append(t.Rows, nil)
	}
	t.Normalize()
	return t, true, nil
}

// Write implements table.Store.
func (s *RemoteStore) Write(ctx context.Context, scope, name string, t table.Table) error {
	t.Normalize()
	payload := map[string]any{
		"columns":   t.Columns,
		"rows":      t.Rows,
		"row_count": len(t.Rows),
		// The database drops empty arrays, so a new table would otherwise
		// read back as null.
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding table: %w", err)
	}
	_, err = s.do(ctx, http.MethodPut, s.path(scope, name), nil, data)
	return err
}

// Delete implements table.Store.
func (s *RemoteStore) Delete(ctx context.Context, scope, name string) error {
	_, err := s.do(ctx, http.MethodDelete, s.path(scope, name), nil, nil)
	return err
}

// ListNames implements table.Store using a shallow read of the scope node.
func (s *RemoteStore) ListNames(ctx context.Context, scope string) ([]string, error) {
	query := url.Values{"shallow": []string{"true"}}
	body, err := s.do(ctx, http.MethodGet, s.path(scope), query, nil)
	if err != nil {
		return nil, err
	}

	var keys map[string]any
	if err := json.Unmarshal(body, &keys); err != nil {
		return nil, fmt.Errorf("parsing table list: %w", err)
	}
	names := make([]string, 0, len(keys))
	for name := range keys {
		names = append(names, name)
	}
	return names, nil
}

// path joins escaped segments under the servers root.
func (s *RemoteStore) path(segments ...string) string {
	parts := []string{remoteRoot}
	for _, seg := range segments {
		parts = append(parts, url.PathEscape(seg))
	}
	return strings.Join(parts, "/")
}

// do performs a rate-limited request against {base}/{path}.json.
func (s *RemoteStore) do(ctx context.Context, method, path string, query url.Values, body []byte) ([]byte, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	if query == nil {
		query = url.Values{}
	}
	if s.secret != "" {
		query.Set("auth", s.secret)
	}
	reqURL := fmt.Sprintf("%s/%s.json", s.baseURL, path)
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(respBody))
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		return nil, &RemoteError{StatusCode: resp.StatusCode, Path: path, Message: msg}
	}

	return respBody, nil
}
