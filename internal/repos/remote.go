package repos

import (
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
)

// Credentials are already resolved by the caller; the engine never persists
// or logs them.
type Credentials struct {
	Username string
	Password string
}

func (c Credentials) authMethod() transport.AuthMethod {
	if c.Username == "" && c.Password == "" {
		return nil
	}
	username := c.Username
	if username == "" {
		// GitHub accepts any non-empty username with a token password.
		username = "git"
	}
	return &http.BasicAuth{Username: username, Password: c.Password}
}

// normalizeRemoteURL reduces a remote URL to a comparable form: scheme and
// user-info stripped, scp-like syntax flattened, trailing slash and ".git"
// suffix dropped. Two URLs naming the same repository compare equal even
// when one carries ".git" or a different protocol prefix.
func normalizeRemoteURL(url string) string {
	u := strings.TrimSpace(url)
	for _, prefix := range []string{"https://", "http://", "ssh://", "git://"} {
		if strings.HasPrefix(u, prefix) {
			u = strings.TrimPrefix(u, prefix)
			break
		}
	}
	if at := strings.IndexByte(u, '@'); at >= 0 {
		rest := u[at+1:]
		// scp-like git@host:owner/repo
		if colon := strings.IndexByte(rest, ':'); colon >= 0 && !strings.Contains(rest[:colon], "/") {
			rest = rest[:colon] + "/" + rest[colon+1:]
		}
		u = rest
	}
	u = strings.TrimSuffix(u, "/")
	u = strings.TrimSuffix(u, ".git")
	return u
}

// sameRemote reports whether two remote URLs name the same repository.
func sameRemote(a, b string) bool {
	return normalizeRemoteURL(a) == normalizeRemoteURL(b)
}
