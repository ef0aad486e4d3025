package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsLoginPage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{
			name: "password input",
			body: `<form method="post"><input type="password" name="pw"></form>`,
			want: true,
		},
		{
			name: "password input single quoted",
			body: `<input type='password' id='pass'>`,
			want: true,
		},
		{
			name: "scripted login ui with two keywords",
			body: `<div>Sign in to your account</div><div>Forgot password?</div>`,
			want: true,
		},
		{
			name: "single keyword only",
			body: `<a href="/login">Login</a>`,
			want: false,
		},
		{
			name: "plain content page",
			body: `<html><body>Product catalog</body></html>`,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsLoginPage(tt.body))
		})
	}
}

func TestExtractLibraries(t *testing.T) {
	body := `
	<script src="/js/jquery-1.8.3.min.js"></script>
	<script src="https://cdn.example.com/angular/1.2.0/angular.min.js"></script>
	<script src="/vendor/bootstrap/4.6.2/bootstrap.min.js"></script>`

	libs := ExtractLibraries(body)
	require.Len(t, libs, 3)

	byName := make(map[string]Library)
	for _, l := range libs {
		byName[l.Name] = l
	}
	assert.Equal(t, "1.8.3", byName["jquery"].Version)
	assert.Equal(t, "1.2.0", byName["angularjs"].Version)
	assert.Equal(t, "4.6.2", byName["bootstrap"].Version)
}

func TestExtractLibraries_DeprecatedWithoutVersion(t *testing.T) {
	body := `<script src="/js/yui-min.js"></script><link href="/bower_components/x/x.css">`

	libs := ExtractLibraries(body)
	names := make(map[string]bool)
	for _, l := range libs {
		names[l.Name] = true
		assert.True(t, l.Deprecated)
	}
	assert.True(t, names["yui"])
	assert.True(t, names["bower"])
}

func TestExtractLibraries_ReportsEachOnce(t *testing.T) {
	body := `
	<script src="/js/jquery-1.8.3.min.js"></script>
	<script src="/js/jquery-1.12.4.min.js"></script>`

	libs := ExtractLibraries(body)
	require.Len(t, libs, 1)
	assert.Equal(t, "jquery", libs[0].Name)
}

func TestMissingSRIResources(t *testing.T) {
	body := `
	<script src="https://cdn.example.com/lib.js"></script>
	<script src="https://cdn.example.com/signed.js" integrity="sha384-abc" crossorigin="anonymous"></script>
	<script src="/local/app.js"></script>
	<script src="https://app.example.com/same-host.js"></script>
	<link rel="stylesheet" href="https://cdn.example.com/style.css">
	<link rel="icon" href="https://cdn.example.com/favicon.ico">`

	missing := MissingSRIResources(body, "app.example.com")
	assert.ElementsMatch(t, []string{
		"https://cdn.example.com/lib.js",
		"https://cdn.example.com/style.css",
	}, missing)
}

func TestMissingSRIResources_ProtocolRelative(t *testing.T) {
	body := `<script src="//cdn.example.com/lib.js"></script>`
	missing := MissingSRIResources(body, "app.example.com")
	assert.Equal(t, []string{"//cdn.example.com/lib.js"}, missing)
}

func TestDetectDebugEndpoint(t *testing.T) {
	pprof := "Types of profiles available:\ngoroutine profile: total 12"
	found, _ := DetectDebugEndpoint(pprof)
	assert.True(t, found)

	actuator := `{"activeProfiles":["prod"],"propertySources":[{"name":"systemProperties"}]}`
	found, _ = DetectDebugEndpoint(actuator)
	assert.True(t, found)

	found, _ = DetectDebugEndpoint("<html><body>About our debugging process</body></html>")
	assert.False(t, found)
}
