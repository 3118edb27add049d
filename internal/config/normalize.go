package config

import "git.home.luguber.info/inful/docpublish/internal/foundation/normalization"

var (
	orderingNormalizer = normalization.New("site.ordering", OrderingLexicographic, OrderingFilesystem).
				Alias("lexical", OrderingLexicographic).
				Alias("sorted", OrderingLexicographic)
	deployNormalizer = normalization.New("publish.deploy.type", DeployNone, DeployDirectory, DeployGitBranch).
				Alias("gh-pages", DeployGitBranch).
				Alias("git_branch", DeployGitBranch).
				Alias("dir", DeployDirectory)
	authNormalizer = normalization.New("auth.type", AuthNone, AuthToken, AuthBasic, AuthSSH)
)

// normalizeEnums canonicalises enum spellings. Unknown values are left for Validate.
func normalizeEnums(c *Config) {
	c.Site.Ordering, _ = orderingNormalizer.Normalize(c.Site.Ordering)
	c.Publish.Deploy.Type, _ = deployNormalizer.Normalize(c.Publish.Deploy.Type)
	for _, a := range []*AuthConfig{c.Source.Auth, c.Publish.Deploy.Auth} {
		if a != nil {
			a.Type, _ = authNormalizer.Normalize(a.Type)
		}
	}
}
