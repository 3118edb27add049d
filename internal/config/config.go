package config

import (
	"time"
)

// Config is the docpublish configuration.
type Config struct {
	Source      SourceConfig      `yaml:"source"`
	Environment EnvironmentConfig `yaml:"environment"`
	Generate    GenerateConfig    `yaml:"generate"`
	Site        SiteConfig        `yaml:"site"`
	Publish     PublishConfig     `yaml:"publish"`
	Workspace   WorkspaceConfig   `yaml:"workspace"`
	Daemon      DaemonConfig      `yaml:"daemon"`
	Notify      NotifyConfig      `yaml:"notify"`
}

// SourceConfig selects the repository snapshot to document. Either URL or Path must be set.
type SourceConfig struct {
	URL    string      `yaml:"url,omitempty"`
	Branch string      `yaml:"branch,omitempty"`
	Path   string      `yaml:"path,omitempty"` // local checkout; skips cloning
	Depth  int         `yaml:"depth,omitempty"`
	Auth   *AuthConfig `yaml:"auth,omitempty"`
}

// AuthConfig holds git credentials for cloning and deploy pushes.
type AuthConfig struct {
	Type     AuthType `yaml:"type"`
	Username string   `yaml:"username,omitempty"`
	Password string   `yaml:"password,omitempty"`
	Token    string   `yaml:"token,omitempty"`
	KeyPath  string   `yaml:"key_path,omitempty"`
}

type AuthType string

const (
	AuthNone  AuthType = "none"
	AuthToken AuthType = "token"
	AuthBasic AuthType = "basic"
	AuthSSH   AuthType = "ssh"
)

// EnvironmentConfig describes the pinned toolchain environment the generator runs in.
type EnvironmentConfig struct {
	Name     string            `yaml:"name"`
	Version  string            `yaml:"version,omitempty"`
	Wrapper  string            `yaml:"wrapper,omitempty"` // e.g. "nix develop --command"
	Vars     map[string]string `yaml:"vars,omitempty"`
	PinFiles []string          `yaml:"pin_files,omitempty"`
}

// GenerateConfig configures the documentation generator invocation.
type GenerateConfig struct {
	Command   string        `yaml:"command"`
	OutputDir string        `yaml:"output_dir"` // relative to the source checkout
	Timeout   time.Duration `yaml:"timeout,omitempty"`
}

// Ordering selects how discovered components are ordered in the index page.
type Ordering string

const (
	OrderingLexicographic Ordering = "lexicographic"
	OrderingFilesystem    Ordering = "filesystem"
)

// SiteConfig configures the assembled public site.
type SiteConfig struct {
	ComponentPrefix string   `yaml:"component_prefix"`
	Ordering        Ordering `yaml:"ordering"`
	Title           string   `yaml:"title"`
	IndexTitle      string   `yaml:"index_title"`
}

// PublishConfig configures artifact packaging and deployment.
type PublishConfig struct {
	Artifact string       `yaml:"artifact,omitempty"`
	Deploy   DeployConfig `yaml:"deploy"`
}

type DeployType string

const (
	DeployNone      DeployType = "none"
	DeployDirectory DeployType = "directory"
	DeployGitBranch DeployType = "git-branch"
)

// DeployConfig selects where the site is deployed.
type DeployConfig struct {
	Type        DeployType  `yaml:"type"`
	Target      string      `yaml:"target,omitempty"` // directory deploys
	Remote      string      `yaml:"remote,omitempty"` // git-branch deploys
	Branch      string      `yaml:"branch,omitempty"`
	Auth        *AuthConfig `yaml:"auth,omitempty"`
	AuthorName  string      `yaml:"author_name,omitempty"`
	AuthorEmail string      `yaml:"author_email,omitempty"`
}

// WorkspaceConfig controls where per-run working directories are created.
type WorkspaceConfig struct {
	BaseDir    string `yaml:"base_dir,omitempty"`
	Persistent bool   `yaml:"persistent,omitempty"`
}

// DaemonConfig configures the trigger surface.
type DaemonConfig struct {
	Listen           string        `yaml:"listen"`
	WebhookSecret    string        `yaml:"webhook_secret,omitempty"`
	HistoryDB        string        `yaml:"history_db"`
	HistoryRetention time.Duration `yaml:"history_retention"`
	ReloadDebounce   time.Duration `yaml:"reload_debounce"`
}

// NotifyConfig enables run notifications over NATS when NATSURL is set.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}
