// Package buildinfo talks to the build tracking server: it reserves the next
// build number, stamps it into a C header and publishes who built it when.
package buildinfo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/natefinch/atomic"

	"github.com/Companion-TheCube/todosync/internal/envfile"
)

// DefaultTimeout bounds each request to the build server.
const DefaultTimeout = 10 * time.Second

// AuthorKey is the .env key naming the person who ran the build.
const AuthorKey = "BUILD_AUTHOR"

var (
	// ErrRejected is returned when the server does not answer "true" to a publish.
	ErrRejected = errors.New("build server rejected build info")
	// ErrAuthorMissing is returned when the .env file has no BUILD_AUTHOR.
	ErrAuthorMissing = errors.New(AuthorKey + " not found in .env file")
)

// Client calls the build tracking server.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Logger  *log.Logger
}

// NewClient returns a client for baseURL with the default timeout.
func NewClient(baseURL string, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: DefaultTimeout},
		Logger:  logger,
	}
}

// Record is the build metadata published to the server.
type Record struct {
	Number int
	Date   string // YYYY-MM-DD
	Time   string // HH:MM:SS
	Author string // already path-encoded
}

// NewRecord builds a Record for build n at now. The author is encoded.
func NewRecord(n int, now time.Time, author string) Record {
	return Record{
		Number: n,
		Date:   now.Format("2006-01-02"),
		Time:   now.Format("15:04:05"),
		Author: EncodeAuthor(author),
	}
}

// EncodeAuthor strips quoting and escapes the rest for use as a path
// segment, so spaces become %20. Double quotes are removed anywhere; single
// quotes only when they wrap the whole value, so O'Brien keeps its apostrophe.
func EncodeAuthor(s string) string {
	s = strings.ReplaceAll(s, `"`, "")
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		s = s[1 : len(s)-1]
	}
	return url.PathEscape(s)
}

// NextBuildNumber reserves and returns the next build number.
func (c *Client) NextBuildNumber(ctx context.Context) (int, error) {
	body, err := c.get(ctx, "/buildnumber/getNext")
	if err != nil {
		return 0, fmt.Errorf("fetch build number: %w", err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(body))
	if err != nil {
		return 0, fmt.Errorf("fetch build number: unexpected response %q", body)
	}
	return n, nil
}

// Publish sends rec to the server.
func (c *Client) Publish(ctx context.Context, rec Record) error {
	path := fmt.Sprintf("/buildinfo/setInfo/%d/%s/%s/%s", rec.Number, rec.Date, rec.Time, rec.Author)
	body, err := c.get(ctx, path)
	if err != nil {
		return fmt.Errorf("publish build info: %w", err)
	}
	if strings.TrimSpace(body) != "true" {
		return fmt.Errorf("%w: %s", ErrRejected, body)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("server returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return string(data), nil
}

// StampHeader atomically writes "#define BUILD_NUMBER <n>" to path.
func StampHeader(path string, n int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("write build header: %w", err)
	}
	_, statErr := os.Stat(path)
	content := fmt.Sprintf("#define BUILD_NUMBER %d\n", n)
	if err := atomic.WriteFile(path, strings.NewReader(content)); err != nil {
		return fmt.Errorf("write build header: %w", err)
	}
	if statErr != nil {
		if err := os.Chmod(path, 0o644); err != nil {
			return fmt.Errorf("write build header: %w", err)
		}
	}
	return nil
}

// Options configures Run.
type Options struct {
	// HeaderPath is the header file to stamp.
	HeaderPath string
	// EnvDir is the directory holding the .env file with BUILD_AUTHOR.
	EnvDir string
	// Now returns the build time. Defaults to time.Now.
	Now func() time.Time
}

// Run reserves a build number, stamps the header and publishes the build
// record. The header is written before the author is looked up.
func (c *Client) Run(ctx context.Context, opts Options) (Record, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	n, err := c.NextBuildNumber(ctx)
	if err != nil {
		return Record{}, err
	}
	if err := StampHeader(opts.HeaderPath, n); err != nil {
		return Record{}, err
	}
	c.Logger.Info("Build number written", "number", n, "path", opts.HeaderPath)

	vars, err := envfile.Load(filepath.Join(opts.EnvDir, ".env"))
	if err != nil {
		return Record{}, err
	}
	author := vars[AuthorKey]
	if author == "" {
		return Record{}, ErrAuthorMissing
	}

	rec := NewRecord(n, now(), author)
	c.Logger.Debug("Publishing build info", "number", rec.Number, "author", rec.Author)
	if err := c.Publish(ctx, rec); err != nil {
		return rec, err
	}
	c.Logger.Info("Build info updated", "date", rec.Date, "time", rec.Time, "author", rec.Author)
	return rec, nil
}
