// Package gitauth converts configured credentials into go-git transport auth.
package gitauth

import (
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"git.home.luguber.info/inful/docpublish/internal/config"
	"git.home.luguber.info/inful/docpublish/internal/foundation/errors"
)

// AuthMethod returns the transport auth for a, or nil for anonymous access.
func AuthMethod(a *config.AuthConfig) (transport.AuthMethod, error) {
	if a == nil {
		return nil, nil
	}
	switch a.Type {
	case config.AuthNone, "":
		return nil, nil
	case config.AuthToken:
		if a.Token == "" {
			return nil, errors.ConfigError("token authentication requires a token").Build()
		}
		// GitHub, GitLab and Forgejo accept any non-empty username with a token.
		return &http.BasicAuth{Username: "token", Password: a.Token}, nil
	case config.AuthBasic:
		if a.Username == "" || a.Password == "" {
			return nil, errors.ConfigError("basic authentication requires username and password").Build()
		}
		return &http.BasicAuth{Username: a.Username, Password: a.Password}, nil
	case config.AuthSSH:
		keyPath := a.KeyPath
		if keyPath == "" {
			home, _ := os.UserHomeDir()
			keyPath = filepath.Join(home, ".ssh", "id_ed25519")
		}
		keys, err := ssh.NewPublicKeysFromFile("git", keyPath, a.Password)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryConfig, "load SSH key").
				WithContext("key_path", keyPath).Build()
		}
		return keys, nil
	default:
		return nil, errors.ConfigError("unsupported authentication type").
			WithContext("type", string(a.Type)).Build()
	}
}
