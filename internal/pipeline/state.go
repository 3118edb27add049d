package pipeline

import (
	"git.home.luguber.info/inful/docpublish/internal/site"
	"git.home.luguber.info/inful/docpublish/internal/source"
	"git.home.luguber.info/inful/docpublish/internal/workspace"
)

// runState carries data between the stages of one run.
type runState struct {
	report        *Report
	ws            *workspace.Manager
	snapshot      *source.Snapshot
	generatedRoot string
	site          *site.Site
}

func (p *Pipeline) newWorkspace(run Run) *workspace.Manager {
	if p.cfg.Workspace.Persistent {
		return workspace.NewPersistentManager(p.cfg.Workspace.BaseDir, "")
	}
	return workspace.NewManager(p.cfg.Workspace.BaseDir, run.ID)
}
