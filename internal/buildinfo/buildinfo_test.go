package buildinfo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeServer records request URIs and answers from a path-prefix table.
type fakeServer struct {
	mu       sync.Mutex
	requests []string
	replies  map[string]string
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r.RequestURI)
	f.mu.Unlock()

	for prefix, body := range f.replies {
		if strings.HasPrefix(r.URL.Path, prefix) {
			w.Write([]byte(body))
			return
		}
	}
	http.NotFound(w, r)
}

func newTestClient(t *testing.T, replies map[string]string) (*Client, *fakeServer) {
	t.Helper()
	fake := &fakeServer{replies: replies}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", nil), fake
}

func TestEncodeAuthor(t *testing.T) {
	tests := map[string]string{
		"Jane Doe":       "Jane%20Doe",
		`"Jane Doe"`:     "Jane%20Doe",
		"solo":           "solo",
		`"A" "B" C`:      "A%20B%20C",
		"back/slash ok?": "back%2Fslash%20ok%3F",
		"'Jane Doe'":     "Jane%20Doe",
		"O'Brien":        "O%27Brien",
		"'":              "%27",
	}
	for in, want := range tests {
		if got := EncodeAuthor(in); got != want {
			t.Errorf("EncodeAuthor(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNextBuildNumber(t *testing.T) {
	client, fake := newTestClient(t, map[string]string{"/buildnumber/getNext": " 42\n"})

	n, err := client.NextBuildNumber(context.Background())
	if err != nil {
		t.Fatalf("NextBuildNumber failed: %v", err)
	}
	if n != 42 {
		t.Errorf("n = %d, want 42", n)
	}
	if fake.requests[0] != "/buildnumber/getNext" {
		t.Errorf("request = %q", fake.requests[0])
	}
}

func TestNextBuildNumberErrors(t *testing.T) {
	client, _ := newTestClient(t, map[string]string{"/buildnumber/getNext": "soon"})
	if _, err := client.NextBuildNumber(context.Background()); err == nil {
		t.Error("expected error for non-numeric body")
	}

	client, _ = newTestClient(t, nil)
	if _, err := client.NextBuildNumber(context.Background()); err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("expected status error, got %v", err)
	}
}

func TestPublish(t *testing.T) {
	client, fake := newTestClient(t, map[string]string{"/buildinfo/setInfo/": "true"})

	rec := NewRecord(7, time.Date(2024, 3, 9, 14, 5, 6, 0, time.Local), "Jane Doe")
	if err := client.Publish(context.Background(), rec); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	want := "/buildinfo/setInfo/7/2024-03-09/14:05:06/Jane%20Doe"
	if fake.requests[0] != want {
		t.Errorf("request = %q, want %q", fake.requests[0], want)
	}
}

func TestPublishRejected(t *testing.T) {
	client, _ := newTestClient(t, map[string]string{"/buildinfo/setInfo/": "false"})
	err := client.Publish(context.Background(), Record{Number: 1, Date: "d", Time: "t", Author: "a"})
	if !errors.Is(err, ErrRejected) {
		t.Errorf("error = %v, want ErrRejected", err)
	}
}

func TestStampHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "include", "build_number.h")
	if err := StampHeader(path, 12); err != nil {
		t.Fatalf("StampHeader failed: %v", err)
	}
	if err := StampHeader(path, 13); err != nil {
		t.Fatalf("second StampHeader failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "#define BUILD_NUMBER 13\n" {
		t.Errorf("header = %q", data)
	}
}

func TestRun(t *testing.T) {
	client, fake := newTestClient(t, map[string]string{
		"/buildnumber/getNext": "100",
		"/buildinfo/setInfo/":  "true",
	})
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("OTHER=1\nBUILD_AUTHOR=\"Ann Lee\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	header := filepath.Join(dir, "build_number.h")
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.Local)

	rec, err := client.Run(context.Background(), Options{
		HeaderPath: header,
		EnvDir:     dir,
		Now:        func() time.Time { return fixed },
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if rec.Number != 100 || rec.Author != "Ann%20Lee" {
		t.Errorf("record = %+v", rec)
	}
	if len(fake.requests) != 2 || fake.requests[1] != "/buildinfo/setInfo/100/2025-01-02/03:04:05/Ann%20Lee" {
		t.Errorf("requests = %v", fake.requests)
	}
	data, _ := os.ReadFile(header)
	if string(data) != "#define BUILD_NUMBER 100\n" {
		t.Errorf("header = %q", data)
	}
}

func TestRunMissingAuthor(t *testing.T) {
	client, fake := newTestClient(t, map[string]string{"/buildnumber/getNext": "5"})
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("BUILD_AUTHOR=\n"), 0644); err != nil {
		t.Fatal(err)
	}
	header := filepath.Join(dir, "build_number.h")

	_, err := client.Run(context.Background(), Options{HeaderPath: header, EnvDir: dir})
	if !errors.Is(err, ErrAuthorMissing) {
		t.Fatalf("error = %v, want ErrAuthorMissing", err)
	}
	if len(fake.requests) != 1 {
		t.Errorf("publish should not be attempted: %v", fake.requests)
	}
	if _, err := os.Stat(header); err != nil {
		t.Errorf("header should already be written: %v", err)
	}
}

func TestRunMissingEnvFile(t *testing.T) {
	client, _ := newTestClient(t, map[string]string{"/buildnumber/getNext": "5"})
	dir := t.TempDir()
	_, err := client.Run(context.Background(), Options{HeaderPath: filepath.Join(dir, "h.h"), EnvDir: dir})
	if err == nil {
		t.Fatal("expected error for missing .env")
	}
}
