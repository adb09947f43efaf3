package commands

import (
	"fmt"
	"text/tabwriter"

	"git.home.luguber.info/inful/sitebuilder/internal/tokens"
	"git.home.luguber.info/inful/sitebuilder/internal/transform"
)

// TokensCmd implements the 'tokens' command.
type TokensCmd struct {
	Prefix string `help:"Store to print (tk, st or all)" enum:"all,tk,st" default:"all"`
}

type prefixedStore struct {
	prefix string
	store  *tokens.Store
}

func (t *TokensCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	cfg = cfg.Resolve(root.baseDir())

	var stores []prefixedStore
	if t.Prefix != transform.PrefixSite {
		tk, err := tokens.LoadTokens(cfg.TokensFile)
		if err != nil {
			return err
		}
		stores = append(stores, prefixedStore{transform.PrefixToken, tk})
	}
	if t.Prefix != transform.PrefixToken {
		st, err := tokens.LoadSiteTokens(cfg.SiteFile)
		if err != nil {
			return err
		}
		stores = append(stores, prefixedStore{transform.PrefixSite, st})
	}

	w := tabwriter.NewWriter(output(g), 0, 4, 2, ' ', 0)
	for _, s := range stores {
		for _, key := range s.store.Keys() {
			value, _ := s.store.Lookup(key)
			_, _ = fmt.Fprintf(w, "%s.%s\t%s\n", s.prefix, key, value)
		}
	}
	return w.Flush()
}
