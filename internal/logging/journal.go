package logging

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Event is one journal line describing a command run against a project.
type Event struct {
	Time           time.Time `json:"time"`
	Command        string    `json:"command"`
	Project        string    `json:"project"`
	TodoFile       string    `json:"todo_file,omitempty"`
	Added          int       `json:"added"`
	Removed        int       `json:"removed"`
	Total          int       `json:"total"`
	AddedEntries   []string  `json:"added_entries,omitempty"`
	RemovedEntries []string  `json:"removed_entries,omitempty"`
	Skipped        []string  `json:"skipped,omitempty"`
	Written        bool      `json:"written"`
	Error          string    `json:"error,omitempty"`
}

// Journal appends events for a single run to a JSONL file.
type Journal struct {
	Dir     string
	RunID   string
	LogPath string
	file    *os.File
	enc     *json.Encoder
}

// NewJournal creates the per-project journal directory under baseDir and
// opens a fresh <run-id>.jsonl file in it.
func NewJournal(baseDir, projectRoot string) (*Journal, error) {
	logDir, err := FindLogDir(baseDir, projectRoot)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	id := runID()
	logPath := filepath.Join(logDir, id+".jsonl")
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	return &Journal{
		Dir:     logDir,
		RunID:   id,
		LogPath: logPath,
		file:    file,
		enc:     json.NewEncoder(file),
	}, nil
}

// Record appends one event. A zero Time is set to now.
func (j *Journal) Record(event Event) error {
	if j == nil || j.file == nil {
		return nil
	}
	if event.Time.IsZero() {
		event.Time = time.Now().UTC()
	}
	if err := j.enc.Encode(event); err != nil {
		return fmt.Errorf("write journal: %w", err)
	}
	return nil
}

// Close closes the journal file.
func (j *Journal) Close() error {
	if j == nil || j.file == nil {
		return nil
	}
	return j.file.Close()
}

// FindLogDir returns the journal directory for a project without creating it.
func FindLogDir(baseDir, projectRoot string) (string, error) {
	if baseDir == "" {
		return "", errors.New("log base dir is empty")
	}
	root := projectRoot
	if root == "" {
		root = "."
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	if !filepath.IsAbs(baseDir) {
		baseDir = filepath.Join(root, baseDir)
	}
	return filepath.Join(filepath.Clean(baseDir), projectSlug(root)), nil
}

// ReadEvents decodes every event in a journal file.
func ReadEvents(path string) ([]Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	var events []Event
	for i, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var ev Event
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			return nil, fmt.Errorf("decode journal line %d: %w", i+1, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

// Run describes one journal file.
type Run struct {
	RunID   string
	Path    string
	ModTime time.Time
}

// FindRuns lists journal files in logDir, newest first.
func FindRuns(logDir string) ([]Run, error) {
	entries, err := os.ReadDir(logDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read log dir: %w", err)
	}

	var runs []Run
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".jsonl") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		runs = append(runs, Run{
			RunID:   strings.TrimSuffix(name, ".jsonl"),
			Path:    filepath.Join(logDir, name),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(runs, func(i, j int) bool {
		if runs[i].ModTime.Equal(runs[j].ModTime) {
			return runs[i].RunID > runs[j].RunID
		}
		return runs[i].ModTime.After(runs[j].ModTime)
	})
	return runs, nil
}

// FindLatestLog finds the latest JSONL log file in a directory.
// It returns "" when there is none.
func FindLatestLog(logDir string) (string, error) {
	runs, err := FindRuns(logDir)
	if err != nil || len(runs) == 0 {
		return "", err
	}
	return runs[0].Path, nil
}

func projectSlug(projectRoot string) string {
	return fmt.Sprintf("%s-%s", slugify(filepath.Base(projectRoot)), hashPath(projectRoot))
}

func slugify(input string) string {
	if strings.TrimSpace(input) == "" {
		return "project"
	}

	var b strings.Builder
	lastUnderscore := false
	for i := 0; i < len(input); i++ {
		c := input[i]
		valid := (c >= 'A' && c <= 'Z') ||
			(c >= 'a' && c <= 'z') ||
			(c >= '0' && c <= '9') ||
			c == '.' || c == '_' || c == '-'
		if !valid {
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
			continue
		}
		b.WriteByte(c)
		lastUnderscore = false
	}

	slug := strings.Trim(b.String(), "_")
	if slug == "" || slug == "." || slug == ".." {
		return "project"
	}
	return slug
}

func hashPath(input string) string {
	sum := sha1.Sum([]byte(input))
	return hex.EncodeToString(sum[:])[:8]
}

func runID() string {
	return fmt.Sprintf("%s-%d", time.Now().UTC().Format("20060102-150405.000"), os.Getpid())
}
