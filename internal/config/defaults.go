package config

import "time"

const (
	DefaultBranch          = "main"
	DefaultCommand         = "cargo doc --no-deps --workspace"
	DefaultOutputDir       = "target/doc"
	DefaultComponentPrefix = "lofire"
	DefaultTitle           = "LoFiRe"
	DefaultIndexTitle      = "LoFiRe Rust API documentation"
	DefaultDeployBranch    = "gh-pages"
	DefaultListen          = ":8080"
	DefaultHistoryDB       = "docpublish-history.db"
	DefaultSubject         = "docpublish.runs"
	DefaultEnvironmentName = "default"
)

// applyDefaults fills zero values. It never overrides explicit settings.
func applyDefaults(c *Config) {
	if c.Source.Branch == "" {
		c.Source.Branch = DefaultBranch
	}
	if c.Environment.Name == "" {
		c.Environment.Name = DefaultEnvironmentName
	}
	if c.Generate.Command == "" {
		c.Generate.Command = DefaultCommand
	}
	if c.Generate.OutputDir == "" {
		c.Generate.OutputDir = DefaultOutputDir
	}
	if c.Site.ComponentPrefix == "" {
		c.Site.ComponentPrefix = DefaultComponentPrefix
	}
	if c.Site.Ordering == "" {
		c.Site.Ordering = OrderingLexicographic
	}
	if c.Site.Title == "" {
		c.Site.Title = DefaultTitle
	}
	if c.Site.IndexTitle == "" {
		c.Site.IndexTitle = DefaultIndexTitle
	}
	if c.Publish.Deploy.Type == "" {
		c.Publish.Deploy.Type = DeployNone
	}
	if c.Publish.Deploy.Type == DeployGitBranch && c.Publish.Deploy.Branch == "" {
		c.Publish.Deploy.Branch = DefaultDeployBranch
	}
	if c.Publish.Deploy.AuthorName == "" {
		c.Publish.Deploy.AuthorName = "docpublish"
	}
	if c.Publish.Deploy.AuthorEmail == "" {
		c.Publish.Deploy.AuthorEmail = "docpublish@localhost"
	}
	if c.Daemon.Listen == "" {
		c.Daemon.Listen = DefaultListen
	}
	if c.Daemon.HistoryDB == "" {
		c.Daemon.HistoryDB = DefaultHistoryDB
	}
	if c.Daemon.HistoryRetention == 0 {
		c.Daemon.HistoryRetention = 30 * 24 * time.Hour
	}
	if c.Daemon.ReloadDebounce == 0 {
		c.Daemon.ReloadDebounce = 2 * time.Second
	}
	if c.Notify.NATSURL != "" && c.Notify.Subject == "" {
		c.Notify.Subject = DefaultSubject
	}
}
