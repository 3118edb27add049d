package commands

import (
	"fmt"

	"git.home.luguber.info/inful/docpublish/internal/config"
	"git.home.luguber.info/inful/docpublish/internal/site"
)

// AssembleCmd implements the 'assemble' command. It needs no configuration file.
type AssembleCmd struct {
	Generated string `help:"Generated documentation tree (moved into the site)" required:"" type:"path"`
	Output    string `short:"o" help:"Output root of the public site" required:"" type:"path"`
	Prefix    string `help:"Component directory prefix" default:"lofire"`
	Ordering  string `help:"Component ordering in the index page" default:"lexicographic" enum:"lexicographic,filesystem"`
	Title     string `help:"Landing page title" default:"LoFiRe"`
}

func (a *AssembleCmd) Run(g *Global) error {
	asm := site.NewAssembler(config.SiteConfig{
		ComponentPrefix: a.Prefix,
		Ordering:        config.Ordering(a.Ordering),
		Title:           a.Title,
	})
	s, err := asm.Assemble(a.Output, a.Generated)
	if err != nil {
		return err
	}
	out := g.out()
	_, _ = fmt.Fprintf(out, "Assembled %s with %d components\n", s.Root, len(s.Components))
	for _, c := range s.Components {
		_, _ = fmt.Fprintf(out, "  %s\n", c.Name)
	}
	return nil
}
