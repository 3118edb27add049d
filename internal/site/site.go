package site

import (
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/docpublish/internal/config"
	"git.home.luguber.info/inful/docpublish/internal/foundation/errors"
	"git.home.luguber.info/inful/docpublish/internal/logfields"
)

const (
	DocDir    = "doc"
	IndexFile = "index.html"
)

// Component is a published sub-package with its own generated subtree.
type Component struct {
	Name string
}

// Href is the component's link target relative to doc/index.html.
func (c Component) Href() string { return c.Name + "/" + IndexFile }

// Site is an assembled public site.
type Site struct {
	Root       string
	DocRoot    string
	Components []Component
}

// Assembler turns a generated doc tree into a Site.
type Assembler struct {
	prefix     string
	ordering   config.Ordering
	title      string
	indexTitle string
}

// NewAssembler creates an assembler from site configuration. Empty fields fall back to
// the configuration defaults.
func NewAssembler(cfg config.SiteConfig) *Assembler {
	a := &Assembler{
		prefix:     cfg.ComponentPrefix,
		ordering:   cfg.Ordering,
		title:      cfg.Title,
		indexTitle: cfg.IndexTitle,
	}
	if a.prefix == "" {
		a.prefix = config.DefaultComponentPrefix
	}
	if a.ordering == "" {
		a.ordering = config.OrderingLexicographic
	}
	if a.title == "" {
		a.title = config.DefaultTitle
	}
	if a.indexTitle == "" {
		a.indexTitle = config.DefaultIndexTitle
	}
	return a
}

// Assemble relocates generatedRoot to outputRoot/doc and writes the index and landing
// pages. It fails if generatedRoot is missing or empty, or if outputRoot/doc exists.
func (a *Assembler) Assemble(outputRoot, generatedRoot string) (*Site, error) {
	if err := checkGenerated(generatedRoot); err != nil {
		return nil, err
	}

	docRoot := filepath.Join(outputRoot, DocDir)
	if _, err := os.Lstat(docRoot); err == nil {
		return nil, errors.NewError(errors.CategoryAlreadyExists, "site doc directory already exists").
			WithContext("path", docRoot).Build()
	}
	if err := os.MkdirAll(outputRoot, 0o755); err != nil {
		return nil, errors.FileSystemError("create output root").WithCause(err).
			WithContext("path", outputRoot).Build()
	}

	// The move happens before any other write so readers never see pages without the tree.
	if err := moveTree(generatedRoot, docRoot); err != nil {
		return nil, errors.WrapError(err, errors.CategoryAssembly, "relocate generated tree").
			WithContext("from", generatedRoot).
			WithContext("to", docRoot).Build()
	}
	slog.Debug("Relocated generated tree", slog.String("from", generatedRoot), logfields.Path(docRoot))

	components, err := Components(docRoot, a.prefix, a.ordering)
	if err != nil {
		return nil, err
	}

	indexHTML, err := renderIndex(a.indexTitle, components)
	if err != nil {
		return nil, err
	}
	if err := writePage(filepath.Join(docRoot, IndexFile), indexHTML); err != nil {
		return nil, err
	}
	landingHTML, err := renderLanding(a.title)
	if err != nil {
		return nil, err
	}
	if err := writePage(filepath.Join(outputRoot, IndexFile), landingHTML); err != nil {
		return nil, err
	}

	slog.Info("Assembled site",
		logfields.Path(outputRoot),
		slog.Int("components", len(components)),
		slog.String("ordering", string(a.ordering)))

	return &Site{Root: outputRoot, DocRoot: docRoot, Components: components}, nil
}

func checkGenerated(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NotFoundError("generated doc tree not found").
				WithContext("path", root).Build()
		}
		return errors.FileSystemError("stat generated doc tree").WithCause(err).
			WithContext("path", root).Build()
	}
	if !info.IsDir() {
		return errors.AssemblyError("generated doc tree is not a directory").
			WithContext("path", root).Build()
	}
	f, err := os.Open(root)
	if err != nil {
		return errors.FileSystemError("open generated doc tree").WithCause(err).
			WithContext("path", root).Build()
	}
	defer func() { _ = f.Close() }()
	if names, _ := f.Readdirnames(1); len(names) == 0 {
		return errors.AssemblyError("generated doc tree is empty").
			WithContext("path", root).Build()
	}
	return nil
}

func writePage(path string, content []byte) error {
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return errors.FileSystemError("write page").WithCause(err).
			WithContext("path", path).Build()
	}
	return nil
}
