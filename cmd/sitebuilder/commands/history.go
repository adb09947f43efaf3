package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/eventstore"
	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int    `short:"n" help:"Number of builds to show" default:"10"`
	JSON  bool   `help:"Print JSON instead of a table"`
	Build string `help:"Show the details of one build"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	path := cfg.Resolve(root.baseDir()).History.Path
	if _, err := os.Stat(path); err != nil {
		return errors.NotFoundError("no build history recorded yet").
			WithCause(err).
			WithContext("path", path).
			Build()
	}

	store, err := eventstore.NewSQLiteStore(path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	limit := max(h.Limit, 1)
	projection := eventstore.NewBuildHistoryProjection(store, limit)
	if err := projection.Rebuild(context.Background()); err != nil {
		return err
	}

	if h.Build != "" {
		summary, ok := projection.GetBuild(h.Build)
		if !ok {
			return errors.NotFoundError("build not found in history").
				WithContext("build_id", h.Build).
				WithContext("limit", limit).
				Build()
		}
		if h.JSON {
			return encodeJSON(output(g), summary)
		}
		return printBuild(output(g), summary)
	}

	if h.JSON {
		return encodeJSON(output(g), projection.GetHistory())
	}
	return printHistory(output(g), projection.GetHistory())
}

func encodeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printBuild(out io.Writer, b *eventstore.BuildSummary) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	row := func(k, v string) { _, _ = fmt.Fprintf(w, "%s:\t%s\n", k, v) }
	row("Build", b.BuildID)
	row("Trigger", b.Trigger)
	row("Status", b.Status)
	row("Started", b.StartedAt.Local().Format(time.DateTime))
	if b.CompletedAt != nil {
		row("Completed", b.CompletedAt.Local().Format(time.DateTime))
	}
	row("Duration", b.Duration.Truncate(time.Millisecond).String())
	row("Hooks", fmt.Sprint(b.HookCount))
	row("Pages", fmt.Sprint(b.PageCount))
	if b.ErrorStage != "" || b.ErrorMessage != "" {
		row("Error", strings.TrimPrefix(b.ErrorStage+": "+b.ErrorMessage, ": "))
	}
	if r := b.ReportData; r != nil {
		row("Outcome", r.Outcome)
		row("Broken links", fmt.Sprint(r.BrokenLinks))
		for _, warn := range r.Warnings {
			row("Warning", warn)
		}
	}
	return w.Flush()
}

func printHistory(out io.Writer, builds []*eventstore.BuildSummary) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "BUILD\tTRIGGER\tSTATUS\tSTARTED\tDURATION\tPAGES\tERROR")
	for _, b := range builds {
		errMsg := b.ErrorMessage
		if b.ErrorStage != "" {
			errMsg = b.ErrorStage + ": " + errMsg
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			b.BuildID, b.Trigger, b.Status,
			b.StartedAt.Local().Format(time.DateTime),
			b.Duration.Truncate(time.Millisecond),
			b.PageCount, errMsg)
	}
	return w.Flush()
}
