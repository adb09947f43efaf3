package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/collections"
	"git.home.luguber.info/inful/sitebuilder/internal/content"
	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

const dateLayout = "2006-01-02"

// HappeningsCmd implements the 'happenings' command.
type HappeningsCmd struct {
	At string `help:"Evaluate at this instant (YYYY-MM-DD or RFC 3339) instead of now"`
}

func (h *HappeningsCmd) Run(g *Global, root *CLI) error {
	now, err := parseAt(h.At, time.Now)
	if err != nil {
		return err
	}
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	baseDir := root.baseDir()
	cfg = cfg.Resolve(baseDir)

	loader := content.NewLoader(cfg.Input, cfg.Output)
	loader.Root = baseDir
	items, err := loader.Load(context.Background())
	if err != nil {
		return err
	}
	set, err := collections.NewBuilder(cfg, collections.WithClock(func() time.Time { return now })).Build(items)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(output(g), 0, 4, 2, ' ', 0)
	printHappenings(w, "Upcoming", set.Get(collections.UpcomingHappenings))
	printHappenings(w, "Past", set.Get(collections.PastHappenings))
	return w.Flush()
}

func printHappenings(w io.Writer, heading string, items []*content.Item) {
	_, _ = fmt.Fprintf(w, "%s (%d)\n", heading, len(items))
	for _, item := range items {
		date := "-"
		if item.Data.HappeningDate != nil {
			date = item.Data.HappeningDate.Format(dateLayout)
		}
		_, _ = fmt.Fprintf(w, "  %s\t%s\t%s\n", date, item.Title, item.URL)
	}
}

func parseAt(value string, now func() time.Time) (time.Time, error) {
	if value == "" {
		return now(), nil
	}
	if t, err := time.ParseInLocation(dateLayout, value, time.Local); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, errors.ValidationError("invalid --at value, expected YYYY-MM-DD or RFC 3339").
			WithCause(err).
			WithContext("value", value).
			Build()
	}
	return t, nil
}
