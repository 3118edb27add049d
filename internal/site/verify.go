package site

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/docpublish/internal/foundation/errors"
)

// Link is a relative href found on one of the site's own pages.
type Link struct {
	Page   string // page path relative to the site root
	Href   string
	Target string // resolved filesystem path
}

// VerifyReport lists the links checked on the landing and index pages.
type VerifyReport struct {
	Links    []Link
	Dangling []Link
}

// Verify probes every relative link on index.html and doc/index.html. External links,
// absolute paths and pure fragments are ignored. A dangling link fails verification.
func Verify(root string) (*VerifyReport, error) {
	report := &VerifyReport{}
	for _, page := range []string{IndexFile, filepath.Join(DocDir, IndexFile)} {
		links, err := pageLinks(root, page)
		if err != nil {
			return nil, err
		}
		for _, l := range links {
			report.Links = append(report.Links, l)
			if _, err := os.Stat(l.Target); err != nil {
				report.Dangling = append(report.Dangling, l)
			}
		}
	}
	if len(report.Dangling) > 0 {
		hrefs := make([]string, 0, len(report.Dangling))
		for _, l := range report.Dangling {
			hrefs = append(hrefs, l.Page+" -> "+l.Href)
		}
		return report, errors.AssemblyError("site has dangling links").
			WithContext("dangling", hrefs).Build()
	}
	return report, nil
}

func pageLinks(root, page string) ([]Link, error) {
	path := filepath.Join(root, page)
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryAssembly, "open site page").
			WithContext("page", page).Build()
	}
	defer func() { _ = f.Close() }()

	doc, err := html.Parse(f)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryAssembly, "parse site page").
			WithContext("page", page).Build()
	}

	var links []Link
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" {
					continue
				}
				if target, ok := resolveLocal(filepath.Dir(path), attr.Val); ok {
					links = append(links, Link{Page: filepath.ToSlash(page), Href: attr.Val, Target: target})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links, nil
}

func resolveLocal(pageDir, href string) (string, bool) {
	u, err := url.Parse(href)
	if err != nil || u.IsAbs() || u.Host != "" || u.Path == "" || strings.HasPrefix(u.Path, "/") {
		return "", false
	}
	return filepath.Join(pageDir, filepath.FromSlash(u.Path)), true
}
