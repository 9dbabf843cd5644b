package logging

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNewJournal(t *testing.T) {
	t.Run("creates per-project dir and file", func(t *testing.T) {
		base := filepath.Join(t.TempDir(), "logs", "nested")
		project := filepath.Join(t.TempDir(), "Cube Core")

		j, err := NewJournal(base, project)
		if err != nil {
			t.Fatalf("NewJournal failed: %v", err)
		}
		defer j.Close()

		if !strings.HasPrefix(filepath.Base(j.Dir), "Cube_Core-") {
			t.Errorf("Dir = %q, want Cube_Core-<hash> slug", j.Dir)
		}
		if filepath.Dir(j.Dir) != base {
			t.Errorf("Dir parent = %q, want %q", filepath.Dir(j.Dir), base)
		}
		if _, err := os.Stat(j.LogPath); err != nil {
			t.Errorf("log file not created: %v", err)
		}
		if filepath.Base(j.LogPath) != j.RunID+".jsonl" {
			t.Errorf("LogPath = %q, RunID = %q", j.LogPath, j.RunID)
		}
	})

	t.Run("empty base dir returns error", func(t *testing.T) {
		if _, err := NewJournal("", t.TempDir()); err == nil || !strings.Contains(err.Error(), "empty") {
			t.Errorf("expected empty dir error, got %v", err)
		}
	})

	t.Run("nil journal is a no-op", func(t *testing.T) {
		var j *Journal
		if err := j.Record(Event{Command: "sync"}); err != nil {
			t.Errorf("Record on nil journal: %v", err)
		}
		if err := j.Close(); err != nil {
			t.Errorf("Close on nil journal: %v", err)
		}
	})
}

func TestJournalRecordAndRead(t *testing.T) {
	j, err := NewJournal(t.TempDir(), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	events := []Event{
		{Command: "sync", Added: 2, Total: 2, AddedEntries: []string{"- [a.c:1] x", "- [b.c:2] y"}, Written: true},
		{Command: "check", Removed: 1, Total: 1, RemovedEntries: []string{"- [b.c:2] y"}},
	}
	for _, ev := range events {
		if err := j.Record(ev); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}
	if err := j.Close(); err != nil {
		t.Fatal(err)
	}

	got, err := ReadEvents(j.LogPath)
	if err != nil {
		t.Fatalf("ReadEvents failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	if got[0].Command != "sync" || got[0].Added != 2 || !got[0].Written || len(got[0].AddedEntries) != 2 {
		t.Errorf("event 0 = %+v", got[0])
	}
	if got[1].Command != "check" || got[1].RemovedEntries[0] != "- [b.c:2] y" {
		t.Errorf("event 1 = %+v", got[1])
	}
	if got[0].Time.IsZero() {
		t.Error("Record did not stamp a time")
	}
}

func TestReadEventsRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.jsonl")
	if err := os.WriteFile(path, []byte("{\"command\":\"sync\"}\nnot json\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadEvents(path); err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("expected line 2 decode error, got %v", err)
	}
}

func TestFindLogDir(t *testing.T) {
	base := t.TempDir()
	project := t.TempDir()

	a, err := FindLogDir(base, project)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := FindLogDir(base, project)
	if a != b {
		t.Errorf("FindLogDir not stable: %q vs %q", a, b)
	}
	other, _ := FindLogDir(base, t.TempDir())
	if a == other {
		t.Error("different projects share a log dir")
	}

	rel, err := FindLogDir("logs", project)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(rel, filepath.Join(project, "logs")) {
		t.Errorf("relative base not resolved against project: %q", rel)
	}
}

func TestFindLatestLog(t *testing.T) {
	t.Run("newest jsonl wins", func(t *testing.T) {
		logDir := t.TempDir()
		old := time.Now().Add(-time.Hour)
		for i, name := range []string{"a.jsonl", "b.jsonl", "c.txt"} {
			path := filepath.Join(logDir, name)
			if err := os.WriteFile(path, []byte("{}\n"), 0644); err != nil {
				t.Fatal(err)
			}
			mod := old.Add(time.Duration(i) * time.Minute)
			if err := os.Chtimes(path, mod, mod); err != nil {
				t.Fatal(err)
			}
		}
		if err := os.Mkdir(filepath.Join(logDir, "z.jsonl"), 0755); err != nil {
			t.Fatal(err)
		}

		latest, err := FindLatestLog(logDir)
		if err != nil {
			t.Fatal(err)
		}
		if filepath.Base(latest) != "b.jsonl" {
			t.Errorf("latest = %q, want b.jsonl", latest)
		}

		runs, err := FindRuns(logDir)
		if err != nil {
			t.Fatal(err)
		}
		if len(runs) != 2 || runs[0].RunID != "b" || runs[1].RunID != "a" {
			t.Errorf("runs = %+v", runs)
		}
	})

	t.Run("missing dir is empty", func(t *testing.T) {
		latest, err := FindLatestLog(filepath.Join(t.TempDir(), "nope"))
		if err != nil || latest != "" {
			t.Errorf("FindLatestLog = %q, %v", latest, err)
		}
	})
}

func TestTailLog(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "run.jsonl")
	if err := os.WriteFile(logFile, []byte("line1\nline2\nline3\nline4\nline5\n"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		n    int
		want string
	}{
		{"all", 0, "line1\nline2\nline3\nline4\nline5\n"},
		{"last two", 2, "line4\nline5\n"},
		{"more than file", 10, "line1\nline2\nline3\nline4\nline5\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := TailLog(context.Background(), &buf, logFile, tt.n, false); err != nil {
				t.Fatal(err)
			}
			if buf.String() != tt.want {
				t.Errorf("TailLog = %q, want %q", buf.String(), tt.want)
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		if err := TailLog(context.Background(), new(bytes.Buffer), filepath.Join(t.TempDir(), "x"), 0, false); err == nil {
			t.Error("expected error")
		}
	})
}

// syncBuffer guards a buffer shared with the follow goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func TestTailLogFollow(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "run.jsonl")
	if err := os.WriteFile(logFile, []byte("initial\n"), 0644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() { done <- TailLog(ctx, out, logFile, 0, true) }()

	f, err := os.OpenFile(logFile, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("appended\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	deadline := time.Now().Add(2 * time.Second)
	for !strings.Contains(out.String(), "appended") && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("TailLog returned %v", err)
	}
	if got := out.String(); got != "initial\nappended\n" {
		t.Errorf("followed output = %q", got)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]log.Level{
		"debug":   log.DebugLevel,
		"INFO":    log.InfoLevel,
		"warn":    log.WarnLevel,
		"warning": log.WarnLevel,
		"error":   log.ErrorLevel,
		"fatal":   log.FatalLevel,
		"bogus":   log.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLogLevel(in); got != want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsole(&buf, Options{Level: "warn", Format: "json", Prefix: "todosync"})

	logger.Info("hidden")
	logger.Warn("shown", "added", 3)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info logged at warn level: %q", out)
	}
	if !strings.HasPrefix(out, "{") || !strings.Contains(out, "shown") || !strings.Contains(out, `"added"`) {
		t.Errorf("unexpected json output: %q", out)
	}
	if !strings.Contains(out, "todosync") {
		t.Errorf("prefix missing: %q", out)
	}
}
