// Package feedback provides the domain model for the interactive feedback
// rendezvous protocol — one AI tool call paired with one human answer by
// request ID, relayed between a broker and per-window pollers.
package feedback

import (
	"path"
	"strings"
	"time"
)

// Request is one outstanding ask-the-human operation.
//
// JSON tags are camelCase: this struct is the wire contract of the broker's
// HTTP side-channel and must stay readable by existing editor extensions.
type Request struct {
	ID               string `json:"id"`
	Summary          string `json:"summary"`
	ProjectDirectory string `json:"projectDirectory"`
	TimeoutSeconds   int    `json:"timeoutSeconds"`
	// CreatedAt is epoch milliseconds, matching the startTime/latestStartTime
	// values exchanged on the polling endpoint.
	CreatedAt int64 `json:"createdAt"`
}

// Age returns the elapsed time since the request was created.
func (r *Request) Age(now time.Time) time.Duration {
	return now.Sub(time.UnixMilli(r.CreatedAt))
}

// Image is one uploaded attachment on a Response.
type Image struct {
	Name          string `json:"name"`
	MIMETypeHint  string `json:"mimeTypeHint"`
	Base64Payload string `json:"base64Payload"`
	Size          int64  `json:"size"`
}

// Response is the human's answer to a Request.
type Response struct {
	RequestID string  `json:"requestId"`
	Text      string  `json:"text"`
	Images    []Image `json:"images"`
	// AttachedPaths are referenced, not uploaded — the AI reads them itself.
	AttachedPaths   []string `json:"attachedPaths"`
	OriginDirectory string   `json:"originDirectory"`
}

// NormalizePath canonicalizes a workspace path for ownership comparison:
// backslashes become forward slashes, trailing slashes are stripped, and the
// whole path is lowercased. Comparison is exact equality, never prefix.
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	return strings.ToLower(p)
}

// isUnowned reports whether a project directory carries no real workspace
// claim ("" or "." after normalization).
func isUnowned(dir string) bool {
	n := NormalizePath(dir)
	return n == "" || n == "."
}

// MatchesWorkspace reports whether a request with the given projectDirectory
// belongs to a window whose open workspace folders are workspaceFolders.
//
// The rule is deliberately asymmetric: a window with no workspace open only
// accepts ownerless requests, and a window with a workspace open never
// accepts an ownerless request.
func MatchesWorkspace(projectDirectory string, workspaceFolders []string) bool {
	if len(workspaceFolders) == 0 {
		return isUnowned(projectDirectory)
	}
	if isUnowned(projectDirectory) {
		return false
	}
	dir := NormalizePath(projectDirectory)
	for _, f := range workspaceFolders {
		if NormalizePath(f) == dir {
			return true
		}
	}
	return false
}

// OwnerMatches reports whether a broker with the given ownership claim
// belongs to the window's workspace. A broker that has never served a
// request (ownerSet false) is unclaimed and matches any window.
func OwnerMatches(owner string, ownerSet bool, workspaceFolders []string) bool {
	if !ownerSet {
		return true
	}
	return MatchesWorkspace(owner, workspaceFolders)
}

// MIMETypeForName maps an attachment filename to the MIME type reported to
// the AI. Unknown extensions fall back to image/png.
func MIMETypeForName(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/png"
	}
}
