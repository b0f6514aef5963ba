package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cheggaaa/pb/v3"
	"github.com/desertthunder/melodylog/internal/formatter"
	"github.com/desertthunder/melodylog/internal/shared"
	"github.com/desertthunder/melodylog/internal/tasks"
	"github.com/urfave/cli/v3"
)

const progressTemplate = `{{ string . "prefix" }} {{ bar . }} {{ counters . }} | ETA {{ rtime . "%s" }}`

// importResult is the JSON shape of an import run.
type importResult struct {
	Report  any    `json:"report"`
	Message string `json:"message"`
}

// ImportText imports delimited or JSON lines from a file, or from standard input when the
// path is omitted or "-".
func (r *Runner) ImportText(ctx context.Context, cmd *cli.Command) error {
	rc, err := r.openSource(cmd.StringArg("path"))
	if err != nil {
		return err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return fmt.Errorf("failed to read import source: %w", err)
	}

	lines := strings.Split(string(data), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return r.runImport(ctx, cmd, lines)
}

// ImportCSV imports the rows of a CSV export.
func (r *Runner) ImportCSV(ctx context.Context, cmd *cli.Command) error {
	rc, err := r.openSource(cmd.StringArg("path"))
	if err != nil {
		return err
	}
	defer rc.Close()

	lines, err := formatter.CSVToLines(rc)
	if err != nil {
		return err
	}
	return r.runImport(ctx, cmd, lines)
}

func (r *Runner) openSource(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(r.input), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	return f, nil
}

// runImport feeds lines through the importer, drawing a progress bar unless disabled.
func (r *Runner) runImport(ctx context.Context, cmd *cli.Command, lines []string) error {
	if err := r.open(ctx); err != nil {
		return err
	}

	smartMatch := r.config.Import.SmartMatch
	if cmd.IsSet("smart-match") {
		smartMatch = cmd.Bool("smart-match")
	}
	asJSON := cmd.Bool("json")

	r.logger.Info("importing", "lines", len(lines), "smartMatch", smartMatch)

	var progress chan tasks.ProgressUpdate
	done := make(chan struct{})
	if asJSON || cmd.Bool("no-progress") {
		close(done)
	} else {
		progress = make(chan tasks.ProgressUpdate, 64)
		go r.drawProgress(progress, len(lines), done)
	}

	report, err := r.library.Import(ctx, r.importer, progress, lines, tasks.ImportOptions{SmartMatch: smartMatch})
	if progress != nil {
		close(progress)
	}
	<-done
	if err != nil && report == nil {
		return err
	}

	limit := r.reportLimit()
	if asJSON {
		return r.writeJSON(importResult{Report: report, Message: report.Summary(limit)}, true)
	}
	if werr := r.writePlain("%s\n", formatter.RenderReport(report, limit)); werr != nil {
		return werr
	}
	return err
}

func (r *Runner) drawProgress(updates <-chan tasks.ProgressUpdate, total int, done chan<- struct{}) {
	defer close(done)

	bar := pb.New(total)
	bar.SetWriter(r.progress)
	bar.SetTemplateString(progressTemplate)
	bar.Set("prefix", "Importing")
	bar.Start()

	for u := range updates {
		switch u.Phase {
		case tasks.SaveSongs:
			bar.Set("prefix", shared.Truncate(u.Message, 40))
		default:
			if u.Step > 0 {
				bar.SetCurrent(int64(u.Step))
			}
			if u.Phase == tasks.SkipLine {
				r.logger.Debug(u.Message)
			}
		}
	}
	bar.Finish()
}
