package commands

import (
	"fmt"

	"git.home.luguber.info/inful/docpublish/internal/site"
)

// VerifyCmd implements the 'verify' command.
type VerifyCmd struct {
	Site string `help:"Root of an assembled site" required:"" type:"path"`
}

func (v *VerifyCmd) Run(g *Global) error {
	report, err := site.Verify(v.Site)
	out := g.out()
	if report != nil {
		for _, l := range report.Dangling {
			_, _ = fmt.Fprintf(out, "dangling: %s -> %s\n", l.Page, l.Href)
		}
	}
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "%d links OK\n", len(report.Links))
	return nil
}
