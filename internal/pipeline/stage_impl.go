package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"git.home.luguber.info/inful/docpublish/internal/environment"
	"git.home.luguber.info/inful/docpublish/internal/foundation/errors"
	"git.home.luguber.info/inful/docpublish/internal/logfields"
	"git.home.luguber.info/inful/docpublish/internal/manifest"
	"git.home.luguber.info/inful/docpublish/internal/publish"
	"git.home.luguber.info/inful/docpublish/internal/site"
	"git.home.luguber.info/inful/docpublish/internal/version"
)

func (p *Pipeline) acquire(ctx context.Context, st *runState) error {
	if err := st.ws.Create(); err != nil {
		return errors.FileSystemError("create workspace").WithCause(err).Build()
	}
	snap, err := p.acquirer.Acquire(ctx, st.ws.SourcePath())
	if err != nil {
		return err
	}
	st.snapshot = snap
	st.report.Branch = snap.Branch
	st.report.Commit = snap.Commit

	fp, err := p.env.Fingerprint(snap.Dir)
	if err != nil {
		return err
	}
	st.report.EnvFingerprint = fp
	if tc, err := environment.ReadToolchain(snap.Dir); err != nil {
		return err
	} else if tc != nil {
		st.report.Toolchain = tc.Channel
	}
	slog.Info("Environment resolved",
		logfields.RunID(st.report.Run.ID),
		slog.String("environment", p.env.String()),
		logfields.EnvFingerprint(fp),
		slog.String("toolchain", st.report.Toolchain))
	return nil
}

func (p *Pipeline) generate(ctx context.Context, st *runState) error {
	root, err := p.generator.Generate(ctx, st.snapshot.Dir)
	if err != nil {
		return err
	}
	st.generatedRoot = root
	return nil
}

func (p *Pipeline) assemble(_ context.Context, st *runState) error {
	s, err := p.assembler.Assemble(st.ws.PublicPath(), st.generatedRoot)
	if err != nil {
		return err
	}
	st.site = s
	st.report.SiteRoot = s.Root
	st.report.Components = make([]string, 0, len(s.Components))
	for _, c := range s.Components {
		st.report.Components = append(st.report.Components, c.Name)
	}
	p.recorder.SetComponents(len(s.Components))
	return nil
}

func (p *Pipeline) verify(_ context.Context, st *runState) error {
	rep, err := site.Verify(st.site.Root)
	if err != nil {
		return err
	}
	slog.Debug("Site links verified", logfields.RunID(st.report.Run.ID), slog.Int("links", len(rep.Links)))
	return nil
}

// publish deploys the site. The artifact, its checksum and the manifest are staged
// beside their final paths and only promoted once the deployment succeeded.
func (p *Pipeline) publish(ctx context.Context, st *runState) error {
	r := st.report
	var pending *publish.Pending
	if path := p.cfg.Publish.Artifact; path != "" {
		staged, err := publish.Stage(st.site.Root, path)
		if err != nil {
			return err
		}
		pending = staged
		defer pending.Discard()
	}

	dep, err := p.publisher.Publish(ctx, publish.Request{SiteRoot: st.site.Root, RunID: r.Run.ID, Commit: r.Commit})
	if err != nil {
		return err
	}
	r.Deployment = dep

	if pending == nil {
		return nil
	}
	r.Artifact = &pending.Artifact
	data, err := p.manifest(r).ToJSON()
	r.Artifact = nil
	if err != nil {
		return errors.InternalError("encode manifest").WithCause(err).Build()
	}
	manifestPath := manifest.PathFor(pending.Path)
	if err := pending.Attach(manifestPath, data); err != nil {
		return err
	}
	a, err := pending.Promote()
	if err != nil {
		return err
	}
	r.Artifact = a
	r.Manifest = manifestPath
	slog.Info("Site packaged", logfields.RunID(r.Run.ID), logfields.Path(a.Path), slog.String("sha256", a.SHA256))
	return nil
}

func (p *Pipeline) manifest(r *Report) *manifest.RunManifest {
	m := &manifest.RunManifest{
		ID:        r.Run.ID,
		Trigger:   string(r.Run.Trigger),
		Timestamp: r.Started.UTC(),
		Inputs: manifest.Inputs{
			Source: manifest.SourceInput{
				URL:    redactURL(p.cfg.Source.URL),
				Path:   p.cfg.Source.Path,
				Branch: r.Branch,
				Commit: r.Commit,
			},
			Environment:    r.Environment,
			EnvFingerprint: r.EnvFingerprint,
			Toolchain:      r.Toolchain,
			ConfigHash:     p.cfg.Snapshot(),
		},
		Outputs: manifest.Outputs{
			Components:     r.Components,
			Artifact:       r.Artifact.Path,
			ArtifactSHA256: r.Artifact.SHA256,
		},
		Status:   string(StatusSuccess),
		Duration: time.Since(r.Started).Milliseconds(),
		Version:  version.Version,
	}
	if r.Deployment != nil {
		m.Outputs.Deployment = r.Deployment.Location
		m.Outputs.Revision = r.Deployment.Revision
	}
	return m
}

// redactURL drops userinfo from clone URLs before they are written to disk.
func redactURL(u string) string {
	scheme, rest, ok := strings.Cut(u, "://")
	if !ok {
		return u
	}
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		if slash := strings.Index(rest, "/"); slash < 0 || at < slash {
			rest = rest[at+1:]
		}
	}
	return scheme + "://" + rest
}
