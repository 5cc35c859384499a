package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"AssignmentBoard/internal/domain"
	"AssignmentBoard/internal/source"
)

const (
	userAgent       = "AssignmentBoard/1.0"
	maxResponseSize = 16 << 20
)

// httpGetter issues authenticated GET requests against one backend.
type httpGetter struct {
	backend string
	token   string
	client  *http.Client
}

func newHTTPGetter(backend, token string, client *http.Client, timeout time.Duration) *httpGetter {
	if client == nil {
		if timeout <= 0 {
			timeout = 20 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &httpGetter{backend: backend, token: token, client: client}
}

// fetch returns the body of a 200 response. Anything else is a TransportError.
func (g *httpGetter) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &domain.TransportError{Backend: g.backend, URL: rawURL, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json, text/html;q=0.9")
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, &domain.TransportError{Backend: g.backend, URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		return nil, &domain.TransportError{Backend: g.backend, URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &domain.TransportError{Backend: g.backend, URL: rawURL, Err: fmt.Errorf("read body: %w", err)}
	}
	return body, nil
}

// getList fetches a JSON array, also accepting the {"success": .., "value": [..]}
// envelope the grading tool wraps its replies in. Elements are left raw so a
// single malformed element can be skipped by the caller.
func (g *httpGetter) getList(ctx context.Context, rawURL string) ([]json.RawMessage, error) {
	body, err := g.fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	items, err := decodeList(body)
	if err != nil {
		return nil, &domain.TransportError{Backend: g.backend, URL: rawURL, Err: err}
	}
	return items, nil
}

func decodeList(body []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decode list: %w", err)
		}
		return items, nil
	}

	var envelope struct {
		Success *bool           `json:"success"`
		Value   json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if envelope.Success != nil && !*envelope.Success {
		return nil, fmt.Errorf("backend reported failure: %s", truncate(string(envelope.Value), 200))
	}
	if len(envelope.Value) == 0 {
		return nil, fmt.Errorf("%w: response is neither a list nor an envelope", domain.ErrMalformed)
	}
	return decodeList(envelope.Value)
}

// joinURL appends path elements to base and sets the given query parameters.
func joinURL(base string, query url.Values, elems ...string) (string, error) {
	joined, err := url.JoinPath(base, elems...)
	if err != nil {
		return "", fmt.Errorf("invalid base url %s: %w", base, err)
	}
	if len(query) == 0 {
		return joined, nil
	}
	parsed, err := url.Parse(joined)
	if err != nil {
		return "", fmt.Errorf("invalid url %s: %w", joined, err)
	}
	q := parsed.Query()
	for k, vs := range query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	parsed.RawQuery = q.Encode()
	return parsed.String(), nil
}

// serverRoot strips the path from a backend URL, leaving scheme and host.
func serverRoot(base string) string {
	parsed, err := url.Parse(base)
	if err != nil || parsed.Host == "" {
		return strings.TrimSuffix(base, "/")
	}
	return parsed.Scheme + "://" + parsed.Host
}

// rawText renders a JSON scalar (string or number) as display text.
func rawText(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s
	}
	var f float64
	if err := json.Unmarshal(trimmed, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func isStatus(err error, code int) bool {
	var te *domain.TransportError
	return errors.As(err, &te) && te.StatusCode == code
}

func settingsTimeout(cfg source.Settings) time.Duration {
	if cfg.Timeout > 0 {
		return cfg.Timeout
	}
	return 20 * time.Second
}

// notebookRef links a notebook path to the notebook server's view and raw file endpoints.
func notebookRef(server, id, name, nbPath string) domain.NotebookRef {
	if nbPath == "" {
		nbPath = name
	}
	view, _ := url.JoinPath(server, "notebooks", nbPath)
	download, _ := url.JoinPath(server, "files", nbPath)
	return domain.NotebookRef{
		ID:          id,
		Name:        name,
		Type:        "notebook",
		ViewURL:     view,
		DownloadURL: download,
	}
}
