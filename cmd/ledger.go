package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/tuneport/internal/formatter"
	"github.com/desertthunder/tuneport/internal/ledger"
	"github.com/desertthunder/tuneport/internal/shared"
	"github.com/urfave/cli/v3"
)

// LedgerShow prints the failure ledger in the requested format.
func (r *Runner) LedgerShow(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("path")
	if path == "" {
		path = r.ledgerPath()
	}

	records, err := ledger.Load(path)
	if err != nil {
		return err
	}

	switch format := cmd.String("format"); format {
	case "text":
		r.output.Write(formatter.LedgerToText(records))
	case "markdown", "md":
		r.output.Write(formatter.LedgerToMarkdown(records))
	case "csv":
		data, err := formatter.LedgerToCSV(records)
		if err != nil {
			return err
		}
		r.output.Write(data)
	case "json":
		return r.writeJSON(records, true)
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}

	return nil
}
