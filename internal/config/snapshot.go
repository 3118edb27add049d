package config

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
)

// Snapshot computes a stable hash of the fields that affect the published site.
// Credentials and daemon settings are excluded.
func (c *Config) Snapshot() string {
	if c == nil {
		return ""
	}
	h := sha256.New()
	w := func(parts ...string) { h.Write([]byte(strings.Join(parts, "="))); h.Write([]byte{0}) }

	w("source.url", c.Source.URL)
	w("source.path", c.Source.Path)
	w("source.branch", c.Source.Branch)
	w("source.depth", strconv.Itoa(c.Source.Depth))
	w("environment.name", c.Environment.Name)
	w("environment.version", c.Environment.Version)
	w("environment.wrapper", c.Environment.Wrapper)
	keys := make([]string, 0, len(c.Environment.Vars))
	for k := range c.Environment.Vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		w("environment.vars."+k, c.Environment.Vars[k])
	}
	w("generate.command", c.Generate.Command)
	w("generate.output_dir", c.Generate.OutputDir)
	w("site.component_prefix", c.Site.ComponentPrefix)
	w("site.ordering", string(c.Site.Ordering))
	w("site.title", c.Site.Title)
	w("site.index_title", c.Site.IndexTitle)
	w("publish.deploy.type", string(c.Publish.Deploy.Type))
	w("publish.deploy.target", c.Publish.Deploy.Target)
	w("publish.deploy.remote", c.Publish.Deploy.Remote)
	w("publish.deploy.branch", c.Publish.Deploy.Branch)
	return hex.EncodeToString(h.Sum(nil))
}
