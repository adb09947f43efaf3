package site

import (
	"fmt"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/sitebuilder/internal/content"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/markdown"
)

// BrokenLink is a root-relative link in a page body that resolves to nothing in
// the output directory.
type BrokenLink struct {
	Source string
	Target string
}

func (b BrokenLink) Error() string {
	return fmt.Sprintf("broken link in %s: %s", b.Source, b.Target)
}

// checkLinks looks up every root-relative link of the written items among the
// generated URLs and, failing that, as a file in the output directory.
func checkLinks(output string, items []*content.Item) []BrokenLink {
	urls := make(map[string]bool, len(items))
	for _, it := range items {
		if it.Written() {
			urls[it.URL] = true
		}
	}

	var broken []BrokenLink
	for _, it := range items {
		if !it.Written() {
			continue
		}
		for _, link := range markdown.ExtractLinks(it.Body) {
			target, ok := link.SitePath()
			if !ok || urls[target] || urls[target+"/"] {
				continue
			}
			if _, err := os.Stat(content.OutputPathFor(output, target)); err == nil {
				continue
			}
			slog.Warn("Broken internal link", logfields.Path(it.InputPath), logfields.URL(target))
			broken = append(broken, BrokenLink{Source: it.InputPath, Target: target})
		}
	}
	return broken
}
