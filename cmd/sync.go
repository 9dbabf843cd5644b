package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/Companion-TheCube/todosync/internal/config"
	"github.com/Companion-TheCube/todosync/internal/logging"
	"github.com/Companion-TheCube/todosync/internal/scan"
	"github.com/Companion-TheCube/todosync/internal/todo"
	"github.com/Companion-TheCube/todosync/internal/ui"
	"github.com/Companion-TheCube/todosync/internal/watch"
)

// errOutOfDate is returned by check when a sync would change the document.
var errOutOfDate = errors.New("tracking document is out of date")

// syncer scans the source tree and reconciles the tracking document,
// recording each run in the journal when one is enabled.
type syncer struct {
	cfg     *config.Config
	logger  *log.Logger
	journal *logging.Journal
}

func newSyncer(cfg *config.Config, logger *log.Logger) *syncer {
	s := &syncer{cfg: cfg, logger: logger}
	if cfg.Journal {
		j, err := logging.NewJournal(cfg.LogDir, cfg.ProjectRoot)
		if err != nil {
			logger.Warn("Journal disabled", "err", err)
		} else {
			logger.Debug("Journal opened", "path", j.LogPath)
			s.journal = j
		}
	}
	return s
}

func (s *syncer) Close() error {
	return s.journal.Close()
}

func (s *syncer) scanner() (*scan.Scanner, error) {
	opts := s.cfg.ScanOptions()
	opts.Logger = s.logger
	return scan.New(opts)
}

func (s *syncer) reconcile(command string, dryRun bool) (*todo.Result, error) {
	scanner, err := s.scanner()
	if err != nil {
		return nil, err
	}

	var res *todo.Result
	findings, err := scanner.Scan(s.cfg.SourceDir)
	if err == nil {
		res, err = todo.Reconcile(s.cfg.TodoFile, findings, todo.ReconcileOptions{
			Title:  s.cfg.Title,
			DryRun: dryRun,
		})
	}
	s.record(command, res, scanner.Skipped(), err)
	return res, err
}

func (s *syncer) record(command string, res *todo.Result, skipped []scan.SkippedFile, runErr error) {
	if s.journal == nil {
		return
	}
	event := logging.Event{
		Command:  command,
		Project:  s.cfg.ProjectRoot,
		TodoFile: s.cfg.RelTodoFile(),
	}
	if res != nil {
		event.Added = res.Added
		event.Removed = res.Removed
		event.Total = res.Total
		event.AddedEntries = res.AddedEntries
		event.RemovedEntries = res.RemovedEntries
		event.Written = res.Written
	}
	for _, sk := range skipped {
		event.Skipped = append(event.Skipped, sk.Path)
	}
	if runErr != nil {
		event.Error = runErr.Error()
	}
	if err := s.journal.Record(event); err != nil {
		s.logger.Warn("Failed to write journal", "err", err)
	}
}

func printSummary(w io.Writer, res *todo.Result) {
	fmt.Fprintf(w, "Added %d, removed %d, total %d TODOs\n", res.Added, res.Removed, res.Total)
}

func printDiff(w io.Writer, res *todo.Result) {
	for _, e := range res.AddedEntries {
		fmt.Fprintf(w, "+ %s\n", e)
	}
	for _, e := range res.RemovedEntries {
		fmt.Fprintf(w, "- %s\n", e)
	}
}

// syncCommand performs a single reconcile.
func syncCommand(cfg *config.Config, logger *log.Logger, args []string) error {
	fs := flag.NewFlagSet("todosync sync", flag.ContinueOnError)
	dryRun := fs.Bool("dry-run", false, "Show what would change without writing")
	if err := parseNoArgs(fs, args); err != nil {
		return err
	}

	s := newSyncer(cfg, logger)
	defer s.Close()

	command := "sync"
	if *dryRun {
		command = "sync-dry-run"
	}
	res, err := s.reconcile(command, *dryRun)
	if err != nil {
		return err
	}
	if *dryRun {
		printDiff(stdout, res)
	}
	printSummary(stdout, res)
	return nil
}

// checkCommand reports pending changes without writing.
func checkCommand(cfg *config.Config, logger *log.Logger, args []string) error {
	fs := flag.NewFlagSet("todosync check", flag.ContinueOnError)
	if err := parseNoArgs(fs, args); err != nil {
		return err
	}

	s := newSyncer(cfg, logger)
	defer s.Close()

	res, err := s.reconcile("check", true)
	if err != nil {
		return err
	}
	printDiff(stdout, res)
	if res.Changed {
		printSummary(stdout, res)
		return fmt.Errorf("%w: %s", errOutOfDate, cfg.RelTodoFile())
	}
	fmt.Fprintf(stdout, "Up to date, total %d TODOs\n", res.Total)
	return nil
}

// watchCommand syncs once and then again after every burst of source changes.
func watchCommand(ctx context.Context, cfg *config.Config, logger *log.Logger, args []string) error {
	fs := flag.NewFlagSet("todosync watch", flag.ContinueOnError)
	if err := parseNoArgs(fs, args); err != nil {
		return err
	}

	s := newSyncer(cfg, logger)
	defer s.Close()

	scanner, err := s.scanner()
	if err != nil {
		return err
	}

	first := true
	trigger := func(context.Context) error {
		res, err := s.reconcile("watch", false)
		if err != nil {
			return err
		}
		if first || res.Changed {
			printSummary(stdout, res)
		}
		first = false
		return nil
	}
	if err := trigger(ctx); err != nil {
		return err
	}

	todoPath := filepath.Clean(cfg.TodoFile)
	return watch.Run(ctx, cfg.SourceDir, watch.Options{
		Debounce: cfg.WatchDebounce(),
		Filter: func(path string) bool {
			return filepath.Clean(path) != todoPath && scanner.HasSourceExt(path)
		},
		OnReady: func() {
			logger.Info("Watching for changes", "dir", cfg.SourceDir)
		},
		Logger: logger,
	}, trigger)
}

// tuiCommand launches the interactive preview.
func tuiCommand(ctx context.Context, cfg *config.Config, logger *log.Logger, args []string) error {
	fs := flag.NewFlagSet("todosync tui", flag.ContinueOnError)
	if err := parseNoArgs(fs, args); err != nil {
		return err
	}

	// Console output would tear the alternate screen
	logger.SetLevel(log.ErrorLevel)

	s := newSyncer(cfg, logger)
	defer s.Close()

	return ui.RunPreview(ctx, ui.Preview{
		TodoPath: cfg.RelTodoFile(),
		Plan: func(context.Context) (*todo.Result, error) {
			return s.reconcile("tui-plan", true)
		},
		Apply: func(context.Context) (*todo.Result, error) {
			return s.reconcile("tui-apply", false)
		},
	})
}
