package services

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"hugo-drive-sync/pkg/models"
)

func newSummaryTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
	)
}

// RenderSummary prints the end-of-run table and, when present, the failures.
func RenderSummary(w io.Writer, report *models.RunReport) error {
	if report == nil {
		return errors.New("no report")
	}

	table := newSummaryTable(w)
	table.Header([]string{"Metric", "Value"})
	rows := [][]string{
		{"Duration", report.Duration.Round(time.Millisecond).String()},
		{"Documents found", strconv.Itoa(report.Listed)},
		{"Updated", strconv.Itoa(report.Count(models.StatusUpdated))},
		{"Public updated", strconv.Itoa(report.PublicUpdated())},
		{"Skipped", strconv.Itoa(report.Count(models.StatusSkipped))},
		{"Deleted", strconv.Itoa(report.Count(models.StatusDeleted))},
		{"Failed", strconv.Itoa(report.Count(models.StatusFailed))},
		{"Content updated", strconv.FormatBool(report.ChangeSignal)},
	}
	if err := table.Bulk(rows); err != nil {
		return fmt.Errorf("render summary: %w", err)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("render summary: %w", err)
	}

	failures := report.Failures()
	if len(failures) == 0 {
		return nil
	}

	fmt.Fprintln(w)
	failed := newSummaryTable(w)
	failed.Header([]string{"File ID", "Path", "Error"})
	failedRows := make([][]string, 0, len(failures))
	for _, o := range failures {
		msg := ""
		if o.Err != nil {
			msg = o.Err.Error()
		}
		failedRows = append(failedRows, []string{o.FileID, o.Path, msg})
	}
	if err := failed.Bulk(failedRows); err != nil {
		return fmt.Errorf("render failures: %w", err)
	}
	if err := failed.Render(); err != nil {
		return fmt.Errorf("render failures: %w", err)
	}
	return nil
}
