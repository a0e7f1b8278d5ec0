// SPDX-License-Identifier: MPL-2.0

package repository

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
)

type (
	// credentials are the authentication methods found in the environment.
	credentials struct {
		ssh  transport.AuthMethod
		http transport.AuthMethod
	}

	// credentialSource abstracts the environment for tests.
	credentialSource struct {
		home   string
		getenv func(string) string
	}
)

func defaultCredentialSource() credentialSource {
	home, _ := os.UserHomeDir()
	return credentialSource{home: home, getenv: os.Getenv}
}

// load discovers an SSH key and an HTTP token. Either may be absent;
// public repositories need neither.
func (src credentialSource) load() credentials {
	return credentials{ssh: src.sshAuth(), http: src.httpAuth()}
}

// forURL picks the method matching the URL's transport.
func (c credentials) forURL(rawURL string) transport.AuthMethod {
	switch {
	case isSSHURL(rawURL):
		return c.ssh
	case strings.HasPrefix(rawURL, "https://"), strings.HasPrefix(rawURL, "http://"):
		return c.http
	default:
		return nil
	}
}

func isSSHURL(rawURL string) bool {
	return strings.HasPrefix(rawURL, "ssh://") || scpLike(rawURL)
}

func scpLike(rawURL string) bool {
	at := strings.Index(rawURL, "@")
	colon := strings.Index(rawURL, ":")
	return at > 0 && colon > at && !strings.Contains(rawURL[:colon], "/")
}

func (src credentialSource) sshAuth() transport.AuthMethod {
	if src.home == "" {
		return nil
	}
	for _, key := range []string{"id_ed25519", "id_rsa", "id_ecdsa"} {
		keyPath := filepath.Join(src.home, ".ssh", key)
		if _, err := os.Stat(keyPath); err != nil {
			continue
		}
		if auth, err := ssh.NewPublicKeysFromFile("git", keyPath, ""); err == nil {
			return auth
		}
	}
	return nil
}

func (src credentialSource) httpAuth() transport.AuthMethod {
	tokens := []struct{ env, user string }{
		{"GITHUB_TOKEN", "x-access-token"},
		{"GITLAB_TOKEN", "gitlab-ci-token"},
		{"GIT_TOKEN", "git"},
	}
	for _, tok := range tokens {
		if v := src.getenv(tok.env); v != "" {
			return &http.BasicAuth{Username: tok.user, Password: v}
		}
	}
	return nil
}
