package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"quantum/internal/dispatch"
)

var titleCaser = cases.Title(language.Und)

// RenderOutcome writes the operator-facing summary of one dispatched run.
func RenderOutcome(w io.Writer, input string, outcome dispatch.Outcome) {
	fmt.Fprintf(w, "%s mastering: %s\n", titleCaser.String(string(outcome.Strategy)), input)
	fmt.Fprintf(w, "%d/%d tracks mastered\n", outcome.Succeeded(), len(outcome.Tracks))
	if outcome.Album != nil {
		fmt.Fprintf(w, "Album cohesion: %.1f/100\n", outcome.Album.Cohesion)
	}
	fmt.Fprintln(w)

	rows := make([][]string, 0, len(outcome.Tracks))
	for _, track := range outcome.Tracks {
		status := "ok"
		detail := track.OutputPath
		if !track.Succeeded() {
			status = "skipped"
			detail = track.Err.Error()
		}
		rows = append(rows, []string{
			track.Candidate.ID(),
			track.Preset,
			track.Profile,
			status,
			detail,
		})
	}
	fmt.Fprintln(w, RenderTable(w,
		[]string{"Track", "Preset", "Profile", "Status", "Detail"},
		rows,
	))

	if outcome.Album != nil && len(outcome.Album.Tracks) > 0 {
		order := make([]string, 0, len(outcome.Album.Tracks))
		for _, track := range outcome.Album.Tracks {
			order = append(order, track.Candidate.ID())
		}
		fmt.Fprintf(w, "Suggested order: %s\n", strings.Join(order, " -> "))
	}
}

// RenderRuns writes the run history listing.
func RenderRuns(w io.Writer, runs []Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		cohesion := "-"
		if run.Cohesion != nil {
			cohesion = fmt.Sprintf("%.1f", *run.Cohesion)
		}
		rows = append(rows, []string{
			shortID(run.ID),
			run.CreatedAt.Local().Format("2006-01-02 15:04"),
			run.Input,
			run.Strategy,
			fmt.Sprintf("%d/%d", run.Succeeded, run.TotalTracks),
			cohesion,
		})
	}
	fmt.Fprintln(w, RenderTable(w,
		[]string{"Run", "When", "Input", "Strategy", "Mastered", "Cohesion"},
		rows,
	))
}

// RenderTable renders a bordered table for w, using the rounded style only
// when w is a terminal so piped and file output stays plain. Column indexes
// listed in rightAligned are right-aligned.
func RenderTable(w io.Writer, headers []string, rows [][]string, rightAligned ...int) string {
	tw := table.NewWriter()
	tw.SetStyle(tableStyle(w))

	header := make(table.Row, len(headers))
	for i, value := range headers {
		header[i] = value
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range headers {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	right := make(map[int]bool, len(rightAligned))
	for _, index := range rightAligned {
		right[index] = true
	}
	configs := make([]table.ColumnConfig, 0, len(headers))
	for i := range headers {
		align := text.AlignLeft
		if right[i] {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func tableStyle(w io.Writer) table.Style {
	if f, ok := w.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return table.StyleRounded
	}
	return table.StyleLight
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
