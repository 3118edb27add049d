package publish

import (
	"archive/tar"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/gzip"

	"git.home.luguber.info/inful/docpublish/internal/foundation/errors"
)

// Artifact is a packaged site.
type Artifact struct {
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
	Size   int64  `json:"size"`
}

// ChecksumPath returns the location of the sha256sum-style sidecar file.
func (a *Artifact) ChecksumPath() string { return a.Path + ".sha256" }

// PendingSuffix marks files written by Stage that have not been promoted yet.
const PendingSuffix = ".tmp"

// Pending is a packaged site staged next to its final location. Nothing at the final
// paths changes until Promote.
type Pending struct {
	Artifact
	files []string // final paths; each is staged at path+PendingSuffix
}

// Stage writes siteRoot as a gzip-compressed tarball at artifactPath+".tmp" together with
// its checksum sidecar. Entries are written in lexical order with zeroed ownership and
// timestamps, so equal trees produce byte-identical artifacts.
func Stage(siteRoot, artifactPath string) (*Pending, error) {
	if info, err := os.Stat(siteRoot); err != nil || !info.IsDir() {
		return nil, errors.NotFoundError("site root is not a directory").
			WithContext("path", siteRoot).Build()
	}
	if err := os.MkdirAll(filepath.Dir(artifactPath), 0o750); err != nil {
		return nil, errors.FileSystemError("create artifact directory").WithCause(err).Build()
	}

	p := &Pending{Artifact: Artifact{Path: artifactPath}}
	tmp := artifactPath + PendingSuffix
	f, err := os.Create(tmp) // #nosec G304 -- path comes from configuration
	if err != nil {
		return nil, errors.FileSystemError("create artifact").WithCause(err).
			WithContext("path", tmp).Build()
	}
	p.files = append(p.files, artifactPath)

	digest := sha256.New()
	counter := &countingWriter{}
	if err := writeTarball(io.MultiWriter(f, digest, counter), siteRoot); err != nil {
		_ = f.Close()
		p.Discard()
		return nil, errors.PublishError("package site").WithCause(err).
			WithContext("path", tmp).Build()
	}
	if err := f.Close(); err != nil {
		p.Discard()
		return nil, errors.FileSystemError("close artifact").WithCause(err).Build()
	}

	p.SHA256 = hex.EncodeToString(digest.Sum(nil))
	p.Size = counter.n
	line := fmt.Sprintf("%s  %s\n", p.SHA256, filepath.Base(artifactPath))
	if err := p.Attach(p.ChecksumPath(), []byte(line)); err != nil {
		p.Discard()
		return nil, err
	}
	return p, nil
}

// Attach stages an extra file that is promoted together with the artifact.
func (p *Pending) Attach(path string, data []byte) error {
	if err := os.WriteFile(path+PendingSuffix, data, 0o644); err != nil { // #nosec G306 -- published alongside the artifact
		return errors.FileSystemError("stage file").WithCause(err).
			WithContext("path", path).Build()
	}
	p.files = append(p.files, path)
	return nil
}

// Promote renames every staged file onto its final path. The artifact goes first and
// attachments follow in the order they were added.
func (p *Pending) Promote() (*Artifact, error) {
	for i, path := range p.files {
		if err := os.Rename(path+PendingSuffix, path); err != nil {
			for _, rest := range p.files[i:] {
				_ = os.Remove(rest + PendingSuffix)
			}
			return nil, errors.FileSystemError("promote artifact").WithCause(err).
				WithContext("path", path).Build()
		}
	}
	p.files = nil
	a := p.Artifact
	return &a, nil
}

// Discard removes every staged file. The final paths are left untouched.
func (p *Pending) Discard() {
	for _, path := range p.files {
		_ = os.Remove(path + PendingSuffix)
	}
	p.files = nil
}

// Package stages and immediately promotes an artifact.
func Package(siteRoot, artifactPath string) (*Artifact, error) {
	p, err := Stage(siteRoot, artifactPath)
	if err != nil {
		return nil, err
	}
	return p.Promote()
}

func writeTarball(w io.Writer, root string) error {
	gz := gzip.NewWriter(w)
	gz.ModTime = time.Time{}
	tw := tar.NewWriter(gz)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		link := ""
		if info.Mode()&os.ModeSymlink != 0 {
			if link, err = os.Readlink(path); err != nil {
				return err
			}
		}
		hdr, err := tar.FileInfoHeader(info, link)
		if err != nil {
			return err
		}
		normalizeHeader(hdr, filepath.ToSlash(rel), d.IsDir())
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		src, err := os.Open(path) // #nosec G304 -- walking the site tree
		if err != nil {
			return err
		}
		defer func() { _ = src.Close() }()
		_, err = io.Copy(tw, src)
		return err
	})
	if err != nil {
		return err
	}
	if err := tw.Close(); err != nil {
		return err
	}
	return gz.Close()
}

func normalizeHeader(hdr *tar.Header, name string, dir bool) {
	hdr.Name = name
	if dir {
		hdr.Name += "/"
	}
	hdr.ModTime = time.Unix(0, 0)
	hdr.AccessTime = time.Time{}
	hdr.ChangeTime = time.Time{}
	hdr.Uid, hdr.Gid = 0, 0
	hdr.Uname, hdr.Gname = "", ""
	hdr.Format = tar.FormatPAX
	switch {
	case dir:
		hdr.Mode = 0o755
	case hdr.Typeflag == tar.TypeSymlink:
		hdr.Mode = 0o777
	case hdr.Mode&0o111 != 0:
		hdr.Mode = 0o755
	default:
		hdr.Mode = 0o644
	}
}

type countingWriter struct{ n int64 }

func (c *countingWriter) Write(p []byte) (int, error) {
	c.n += int64(len(p))
	return len(p), nil
}
