package daemon

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
)

// pushEvent is the subset of GitHub, Gitea, Forgejo and GitLab push payloads we use.
type pushEvent struct {
	Ref         string `json:"ref"`
	After       string `json:"after"`
	CheckoutSHA string `json:"checkout_sha"` // GitLab
	Repository  struct {
		FullName string `json:"full_name"`
		PathNS   string `json:"path_with_namespace"` // GitLab
	} `json:"repository"`
	Project struct {
		PathNS string `json:"path_with_namespace"`
	} `json:"project"`
}

func (e pushEvent) commit() string {
	if e.After != "" {
		return e.After
	}
	return e.CheckoutSHA
}

func (e pushEvent) repository() string {
	switch {
	case e.Repository.FullName != "":
		return e.Repository.FullName
	case e.Repository.PathNS != "":
		return e.Repository.PathNS
	default:
		return e.Project.PathNS
	}
}

func parsePush(body []byte) (pushEvent, error) {
	var e pushEvent
	err := json.Unmarshal(body, &e)
	return e, err
}

// eventType returns the forge event name, normalized to "push" for push events.
func eventType(h http.Header) string {
	for _, key := range []string{"X-GitHub-Event", "X-Gitea-Event", "X-Forgejo-Event", "X-Gitlab-Event"} {
		if v := h.Get(key); v != "" {
			if v == "Push Hook" {
				return "push"
			}
			return strings.ToLower(v)
		}
	}
	return ""
}

// validSignature checks the request signature against secret. GitHub sends
// X-Hub-Signature-256 "sha256=<hex>", Gitea and Forgejo send a bare hex HMAC-SHA256,
// and GitLab echoes the secret in X-Gitlab-Token.
func validSignature(h http.Header, body []byte, secret string) bool {
	if sig := h.Get("X-Hub-Signature-256"); sig != "" {
		expected, ok := strings.CutPrefix(sig, "sha256=")
		return ok && hmacEqual(expected, body, secret)
	}
	for _, key := range []string{"X-Gitea-Signature", "X-Forgejo-Signature"} {
		if sig := h.Get(key); sig != "" {
			return hmacEqual(sig, body, secret)
		}
	}
	if token := h.Get("X-Gitlab-Token"); token != "" {
		return hmac.Equal([]byte(token), []byte(secret))
	}
	return false
}

func hmacEqual(expectedHex string, body []byte, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	calc := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(strings.ToLower(expectedHex)), []byte(calc))
}
