// Command resumectl uploads resumes to the analysis service and browses past analyses.
//
//	resumectl [-api URL] upload <file.pdf>
//	resumectl [-api URL] list
//	resumectl [-api URL] show <id>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"

	"resumeview/internal/apiclient"
	"resumeview/internal/config"
	"resumeview/internal/history"
	"resumeview/internal/logger"
	"resumeview/internal/uploader"
	"resumeview/internal/viewer"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

const progressInterval = 100 * time.Millisecond

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type cli struct {
	api    *apiclient.Client
	log    *zap.Logger
	stdout io.Writer
	stderr io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg := config.Load()

	fs := flag.NewFlagSet("resumectl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	apiBase := fs.String("api", cfg.Backend.BaseURL, "base URL of the resume analysis service")
	verbose := fs.Bool("v", false, "log request failures and diagnostics to stderr")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: resumectl [-api URL] [-v] upload <file.pdf> | list | show <id>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return exitUsage
	}

	log := logger.NewCLI(stderr, *verbose)
	defer log.Sync()

	c := &cli{
		api:    apiclient.New(*apiBase, time.Duration(cfg.Backend.TimeoutSec)*time.Second),
		log:    log,
		stdout: stdout,
		stderr: stderr,
	}

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "upload":
		if len(rest) != 1 {
			fs.Usage()
			return exitUsage
		}
		return c.upload(ctx, rest[0])
	case "list":
		if len(rest) != 0 {
			fs.Usage()
			return exitUsage
		}
		return c.list(ctx)
	case "show":
		if len(rest) != 1 {
			fs.Usage()
			return exitUsage
		}
		id, err := strconv.ParseInt(rest[0], 10, 64)
		if err != nil || id <= 0 {
			fmt.Fprintf(stderr, "invalid resume id %q\n", rest[0])
			return exitUsage
		}
		return c.show(ctx, id)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", cmd)
		fs.Usage()
		return exitUsage
	}
}

func (c *cli) upload(ctx context.Context, path string) int {
	store := uploader.NewStore(c.api, nil)

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(c.stderr, "cannot read %s: %v\n", path, err)
			return exitUsage
		}
		store.SelectFile(&uploader.File{Name: filepath.Base(path), Data: data})
	}

	done, stopped := make(chan struct{}), make(chan struct{})
	go func() {
		c.reportProgress(store, done)
		close(stopped)
	}()
	st, err := store.Submit(ctx)
	close(done)
	<-stopped

	switch {
	case errors.Is(err, uploader.ErrNoFile):
		fmt.Fprintln(c.stderr, st.Err)
		return exitUsage
	case err != nil:
		c.log.Debug("upload_failed", zap.Error(err))
		fmt.Fprintf(c.stderr, "upload failed: %s\n", st.Err)
		return exitFailure
	}

	if err := viewer.WriteText(c.stdout, viewer.FromUploadResult(st.Result)); err != nil {
		fmt.Fprintln(c.stderr, err)
		return exitFailure
	}
	return exitOK
}

// reportProgress prints the upload percentage to stderr until done is closed.
func (c *cli) reportProgress(store *uploader.Store, done <-chan struct{}) {
	t := time.NewTicker(progressInterval)
	defer t.Stop()
	last := -1
	for {
		select {
		case <-done:
			if last >= 0 {
				fmt.Fprintln(c.stderr)
			}
			return
		case <-t.C:
			st := store.State()
			if st.Phase != uploader.Submitting || st.Progress == last {
				continue
			}
			last = st.Progress
			fmt.Fprintf(c.stderr, "\ruploading %s: %3d%%", st.File.Name, last)
		}
	}
}

func (c *cli) list(ctx context.Context) int {
	table := history.NewTable(c.api, c.log)
	if err := table.Load(ctx); err != nil {
		fmt.Fprintf(c.stderr, "cannot list resumes: %s\n", uploader.ErrorMessage(errors.Unwrap(err)))
		return exitFailure
	}

	tw := tabwriter.NewWriter(c.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFILENAME\tNAME\tEMAIL")
	for _, r := range table.Snapshot().Rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.ID, r.Filename, r.Name, r.Email)
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintln(c.stderr, err)
		return exitFailure
	}
	return exitOK
}

func (c *cli) show(ctx context.Context, id int64) int {
	table := history.NewTable(c.api, c.log)
	if err := table.OpenDetail(ctx, id); err != nil {
		fmt.Fprintf(c.stderr, "cannot show resume %d: %s\n", id, uploader.ErrorMessage(errors.Unwrap(err)))
		return exitFailure
	}

	if err := viewer.WriteText(c.stdout, viewer.FromDetail(table.Snapshot().Detail)); err != nil {
		fmt.Fprintln(c.stderr, err)
		return exitFailure
	}
	return exitOK
}
