package clientcli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout is the default HTTP client timeout for history requests.
// Archive downloads are bounded by their context only.
const DefaultTimeout = 30 * time.Second

// Client performs operations against a photozip server.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// New creates a new Client with the given config and options.
func New(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}

	cfg = cfg.WithDefaults()

	endpoint := strings.TrimSuffix(cfg.Endpoint, "/")
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", cfg.Endpoint, err)
	}

	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Endpoint returns the normalized server URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Download streams the archive of the directory named by opts.Token.
// If LocalPath is "-", returns the body for the caller to consume.
// A partially written file is removed when the stream is cut short.
func (c *Client) Download(ctx context.Context, opts DownloadOptions) (*DownloadResult, io.ReadCloser, error) {
	if opts.Token == "" {
		return nil, nil, fmt.Errorf("download: %w", ErrEmptyToken)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.archiveURL(opts.Token), http.NoBody)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}

	// Archives can take arbitrarily long; only ctx bounds the transfer.
	streamClient := *c.httpClient
	streamClient.Timeout = 0

	resp, err := streamClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, nil, parseServerError(resp.StatusCode, resp.Header.Get("Content-Type"), body)
	}

	result := &DownloadResult{
		Token:       opts.Token,
		Filename:    attachmentFilename(resp.Header.Get("Content-Disposition"), opts.Token),
		ContentType: resp.Header.Get("Content-Type"),
		Size:        resp.ContentLength,
	}

	if opts.LocalPath == "-" {
		result.LocalPath = "-"
		return result, resp.Body, nil
	}

	localPath := opts.LocalPath
	if localPath == "" {
		localPath = result.Filename
	}
	result.LocalPath = localPath

	dir := filepath.Dir(localPath)
	if dir != "" && dir != "." {
		if mkdirErr := os.MkdirAll(dir, 0o750); mkdirErr != nil {
			_ = resp.Body.Close()
			return nil, nil, fmt.Errorf("create directory: %w", mkdirErr)
		}
	}

	file, createErr := os.Create(localPath) //#nosec G304 -- localPath is user-provided input
	if createErr != nil {
		_ = resp.Body.Close()
		return nil, nil, fmt.Errorf("create file: %w", createErr)
	}

	written, copyErr := io.Copy(file, resp.Body)
	_ = resp.Body.Close()
	if copyErr == nil && written == 0 {
		copyErr = ErrEmptyArchive
	}
	if copyErr != nil {
		_ = file.Close()
		_ = os.Remove(localPath)
		return nil, nil, fmt.Errorf("write file: %w", copyErr)
	}

	if closeErr := file.Close(); closeErr != nil {
		return nil, nil, fmt.Errorf("close file: %w", closeErr)
	}

	result.Size = written
	return result, nil, nil
}

// History fetches recorded archive streams, newest first.
// If opts.All is true, paginates through all results.
func (c *Client) History(ctx context.Context, opts HistoryOptions) (*HistoryResult, error) {
	if opts.All {
		return c.historyAll(ctx, opts)
	}
	return c.historyPage(ctx, opts)
}

func (c *Client) historyPage(ctx context.Context, opts HistoryOptions) (*HistoryResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	if opts.Token != "" {
		query.Set("token", opts.Token)
	}
	if opts.Cursor != "" {
		query.Set("cursor", opts.Cursor)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/history?"+query.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseServerError(resp.StatusCode, resp.Header.Get("Content-Type"), body)
	}

	var result HistoryResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	return &result, nil
}

func (c *Client) historyAll(ctx context.Context, opts HistoryOptions) (*HistoryResult, error) {
	var allItems []ArchiveInfo
	cursor := opts.Cursor

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := c.historyPage(ctx, HistoryOptions{
			Token:  opts.Token,
			Limit:  opts.Limit,
			Cursor: cursor,
		})
		if err != nil {
			return nil, err
		}

		allItems = append(allItems, page.Items...)

		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	return &HistoryResult{Items: allItems}, nil
}

func (c *Client) archiveURL(token string) string {
	return c.endpoint + "/archive/" + url.PathEscape(token) + "/"
}

// attachmentFilename reads the filename parameter of a Content-Disposition
// header, falling back to <token>.zip.
func attachmentFilename(header, token string) string {
	fallback := token + ".zip"
	if header == "" {
		return fallback
	}

	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return fallback
	}

	name := filepath.Base(params["filename"])
	if name == "" || name == "." || name == string(filepath.Separator) {
		return fallback
	}

	return name
}

// parseServerError extracts error details from a server response.
// Archive errors are plain text; history errors are JSON.
func parseServerError(statusCode int, contentType string, body []byte) error {
	apiErr := &APIError{
		StatusCode: statusCode,
		Body:       strings.TrimSpace(string(body)),
	}

	if strings.HasPrefix(contentType, "application/json") {
		var se serverError
		if err := json.Unmarshal(body, &se); err == nil && se.Error != "" {
			apiErr.Code = se.Error
			if se.Message != "" {
				apiErr.Body = se.Message
			}
		}
	}

	return apiErr
}
