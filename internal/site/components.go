package site

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/docpublish/internal/config"
	"git.home.luguber.info/inful/docpublish/internal/foundation/errors"
	"git.home.luguber.info/inful/docpublish/internal/logfields"
)

// Components lists the component subtrees at the root of docRoot.
//
// With OrderingLexicographic the result is sorted by name. With OrderingFilesystem the
// raw directory-listing order is kept, which differs across filesystems and runs.
func Components(docRoot, prefix string, ordering config.Ordering) ([]Component, error) {
	dir, err := os.Open(docRoot)
	if err != nil {
		return nil, errors.FileSystemError("open doc root").WithCause(err).
			WithContext("path", docRoot).Build()
	}
	defer func() { _ = dir.Close() }()

	// File.ReadDir returns entries in directory order; os.ReadDir would sort them.
	entries, err := dir.ReadDir(-1)
	if err != nil {
		return nil, errors.FileSystemError("list doc root").WithCause(err).
			WithContext("path", docRoot).Build()
	}

	components := make([]Component, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, prefix) || !entry.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(docRoot, name, IndexFile)); err != nil {
			slog.Warn("Skipping component without index page", logfields.Component(name))
			continue
		}
		components = append(components, Component{Name: name})
	}

	if ordering != config.OrderingFilesystem {
		sort.Slice(components, func(i, j int) bool { return components[i].Name < components[j].Name })
	}
	return components, nil
}
