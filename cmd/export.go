package main

import (
	"context"

	"github.com/desertthunder/melodylog/internal/formatter"
	"github.com/urfave/cli/v3"
)

// ExportCSV writes the collection as a BOM-prefixed CSV file.
func (r *Runner) ExportCSV(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx); err != nil {
		return err
	}

	export := formatter.ExportToCSV
	if cmd.Bool("rich") {
		export = formatter.ExportToRichCSV
	}
	data, err := export(r.library.Songs())
	if err != nil {
		return err
	}
	return r.writeExport(data, cmd.String("output"), "csv")
}

// ExportMarkdown writes the collection as a numbered Markdown list.
func (r *Runner) ExportMarkdown(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx); err != nil {
		return err
	}
	data := formatter.ExportToMarkdown(r.library.Songs(), cmd.String("title"))
	return r.writeExport(data, cmd.String("output"), "md")
}

// ExportText writes the collection as lines "import text" accepts.
func (r *Runner) ExportText(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx); err != nil {
		return err
	}
	data, err := formatter.ExportToText(r.library.Songs())
	if err != nil {
		return err
	}
	return r.writeExport(data, cmd.String("output"), "txt")
}

func (r *Runner) writeExport(data []byte, path, ext string) error {
	written, err := formatter.WriteExport(data, path, ext)
	if err != nil {
		return err
	}
	r.logger.Info("exported", "path", written, "songs", len(r.library.Songs()))
	return r.writePlain("✓ Exported %d songs to %s\n", len(r.library.Songs()), written)
}
