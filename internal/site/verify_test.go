package site

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docpublish/internal/foundation/errors"
)

func TestVerifyAssembledSite(t *testing.T) {
	out := filepath.Join(t.TempDir(), "public")
	_, err := newAssembler().Assemble(out, generatedTree(t, "lofire-broker", "lofire-p2p"))
	require.NoError(t, err)

	report, err := Verify(out)
	require.NoError(t, err)
	assert.Empty(t, report.Dangling)

	hrefs := make([]string, 0, len(report.Links))
	for _, l := range report.Links {
		hrefs = append(hrefs, l.Href)
	}
	assert.Equal(t, []string{"doc/index.html", "lofire-broker/index.html", "lofire-p2p/index.html"}, hrefs)
}

func TestVerifyDetectsDanglingLinks(t *testing.T) {
	out := filepath.Join(t.TempDir(), "public")
	_, err := newAssembler().Assemble(out, generatedTree(t, "lofire-broker"))
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(filepath.Join(out, DocDir, "lofire-broker")))

	report, err := Verify(out)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryAssembly))
	require.Len(t, report.Dangling, 1)
	assert.Equal(t, "lofire-broker/index.html", report.Dangling[0].Href)
}

func TestVerifyIgnoresExternalLinks(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, DocDir), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, IndexFile), []byte(
		`<a href="https://example.org/">x</a><a href="#top">y</a><a href="/abs">z</a><a href="doc/index.html">d</a>`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, DocDir, IndexFile), []byte(`<ul></ul>`), 0o644))

	report, err := Verify(root)
	require.NoError(t, err)
	require.Len(t, report.Links, 1)
	assert.Equal(t, "doc/index.html", report.Links[0].Href)
}

func TestVerifyMissingPage(t *testing.T) {
	_, err := Verify(t.TempDir())
	require.Error(t, err)
}
