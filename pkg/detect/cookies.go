// pkg/detect/cookies.go
package detect

import "strings"

// sessionCookieNames are the well-known session identifier cookie names,
// compared case-insensitively.
var sessionCookieNames = []string{
	"sessionid",
	"session",
	"sessid",
	"sid",
	"phpsessid",
	"jsessionid",
	"asp.net_sessionid",
	"connect.sid",
	"laravel_session",
	"_session_id",
	"csrftoken",
	"auth_token",
	"remember_token",
}

// SessionCookie is a parsed Set-Cookie header restricted to the attributes
// the heuristics care about.
type SessionCookie struct {
	Name     string
	Value    string
	Secure   bool
	HTTPOnly bool
	SameSite string
	Raw      string
}

// ExtractSessionCookie parses Set-Cookie header values and returns the
// first session-looking cookie, or nil when none is present.
func ExtractSessionCookie(setCookies []string) *SessionCookie {
	for _, raw := range setCookies {
		c := parseSetCookie(raw)
		if c == nil {
			continue
		}
		if isSessionName(c.Name) {
			return c
		}
	}
	return nil
}

func isSessionName(name string) bool {
	lower := strings.ToLower(name)
	for _, known := range sessionCookieNames {
		if lower == known {
			return true
		}
	}
	// Heuristic fallback for app-specific names like myapp_session.
	return strings.Contains(lower, "session") || strings.Contains(lower, "sess_")
}

func parseSetCookie(raw string) *SessionCookie {
	parts := strings.Split(raw, ";")
	if len(parts) == 0 {
		return nil
	}
	name, value, found := strings.Cut(strings.TrimSpace(parts[0]), "=")
	if !found || name == "" {
		return nil
	}
	c := &SessionCookie{Name: name, Value: value, Raw: raw}
	for _, attr := range parts[1:] {
		attr = strings.TrimSpace(attr)
		lower := strings.ToLower(attr)
		switch {
		case lower == "secure":
			c.Secure = true
		case lower == "httponly":
			c.HTTPOnly = true
		case strings.HasPrefix(lower, "samesite="):
			c.SameSite = attr[len("samesite="):]
		}
	}
	return c
}
