package cmd

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/Companion-TheCube/todosync/internal/artifact"
	"github.com/Companion-TheCube/todosync/internal/buildinfo"
	"github.com/Companion-TheCube/todosync/internal/config"
)

// buildNumberCommand reserves the next build number, stamps it into the
// header and publishes the build record.
func buildNumberCommand(ctx context.Context, cfg *config.Config, logger *log.Logger, args []string) error {
	fs := flag.NewFlagSet("todosync buildnumber", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	remaining := fs.Args()
	if len(remaining) != 2 {
		return fmt.Errorf("usage: todosync buildnumber <header> <env-dir>")
	}

	client := buildinfo.NewClient(cfg.BuildServer, logger)
	rec, err := client.Run(ctx, buildinfo.Options{
		HeaderPath: remaining[0],
		EnvDir:     remaining[1],
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Build number %d (%s %s)\n", rec.Number, rec.Date, rec.Time)
	return nil
}

// uploadCommand posts the built artifact, named after the stamped build
// number, to the build server.
func uploadCommand(ctx context.Context, cfg *config.Config, logger *log.Logger, args []string) error {
	fs := flag.NewFlagSet("todosync upload", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	remaining := fs.Args()
	if len(remaining) != 2 {
		return fmt.Errorf("usage: todosync upload <project-root> <header>")
	}

	uploader := artifact.NewUploader(cfg.ArtifactURL(), logger)
	res, err := uploader.Upload(ctx, artifact.Options{
		ProjectRoot: remaining[0],
		HeaderPath:  remaining[1],
		Offline:     cfg.Offline,
	})
	if err != nil {
		return err
	}
	if res.Skipped {
		fmt.Fprintln(stdout, "Offline, upload skipped.")
		return nil
	}
	fmt.Fprintf(stdout, "Uploaded %s\n", res.Name)
	if body := strings.TrimSpace(res.Response); body != "" {
		fmt.Fprintln(stdout, body)
	}
	return nil
}
