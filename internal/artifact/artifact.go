// Package artifact uploads the compiled executable to the build server,
// named after the build number stamped in the build header.
package artifact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const (
	// Boundary is the fixed multipart boundary the server expects.
	Boundary = "----CubeUploadBoundary"
	// FieldName is the form field carrying the file.
	FieldName = "artifact"
	// BaseName is the executable name, also used as the upload name prefix.
	BaseName = "CubeCore"

	defaultTimeout = 5 * time.Minute
)

var (
	// ErrBuildNumberNotFound is returned when the header has no BUILD_NUMBER define.
	ErrBuildNumberNotFound = errors.New("BUILD_NUMBER not found")
	// ErrArtifactMissing is returned when the executable does not exist.
	ErrArtifactMissing = errors.New("executable not found")
)

var buildNumberPattern = regexp.MustCompile(`#define\s+BUILD_NUMBER\s+(\d+)`)

// ParseBuildNumber extracts the build number from a header file.
func ParseBuildNumber(headerPath string) (string, error) {
	data, err := os.ReadFile(headerPath)
	if err != nil {
		return "", fmt.Errorf("read build header: %w", err)
	}
	m := buildNumberPattern.FindSubmatch(data)
	if m == nil {
		return "", fmt.Errorf("%w in %s", ErrBuildNumberNotFound, headerPath)
	}
	return string(m[1]), nil
}

// ArtifactPath returns the executable location under a project root.
func ArtifactPath(projectRoot string) string {
	return filepath.Join(projectRoot, "build", "bin", BaseName)
}

// MultipartBody encodes r as the single file field of a multipart form.
// It returns the body and its Content-Type header value.
func MultipartBody(name string, r io.Reader) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.SetBoundary(Boundary); err != nil {
		return nil, "", err
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, FieldName, name))
	header.Set("Content-Type", "application/octet-stream")
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, "", fmt.Errorf("read artifact: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

// Uploader posts artifacts to the build server.
type Uploader struct {
	URL    string
	HTTP   *http.Client
	Logger *log.Logger
}

// NewUploader returns an uploader for url.
func NewUploader(url string, logger *log.Logger) *Uploader {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Uploader{
		URL:    url,
		HTTP:   &http.Client{Timeout: defaultTimeout},
		Logger: logger,
	}
}

// Options configures an upload.
type Options struct {
	ProjectRoot string
	HeaderPath  string
	// Offline skips the upload without touching the network.
	Offline bool
}

// Result reports what Upload did.
type Result struct {
	Skipped  bool
	Name     string
	Response string
}

// Upload sends <root>/build/bin/CubeCore as CubeCore-<build number>.
func (u *Uploader) Upload(ctx context.Context, opts Options) (Result, error) {
	if opts.Offline {
		u.Logger.Info("Offline mode set; skipping artifact upload")
		return Result{Skipped: true}, nil
	}

	number, err := ParseBuildNumber(opts.HeaderPath)
	if err != nil {
		return Result{}, err
	}

	path := ArtifactPath(opts.ProjectRoot)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return Result{}, fmt.Errorf("%w: %s", ErrArtifactMissing, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()

	name := fmt.Sprintf("%s-%s", BaseName, number)
	body, contentType, err := MultipartBody(name, f)
	if err != nil {
		return Result{}, fmt.Errorf("encode upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.URL, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	u.Logger.Info("Uploading artifact", "name", name, "bytes", info.Size())
	resp, err := u.HTTP.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, fmt.Errorf("upload failed: server returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return Result{Name: name, Response: string(data)}, nil
}
