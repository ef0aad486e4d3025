package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSessionCookie(t *testing.T) {
	cookies := []string{
		"theme=dark; Path=/",
		"PHPSESSID=abc123; Path=/; HttpOnly",
		"tracking=xyz",
	}

	c := ExtractSessionCookie(cookies)
	require.NotNil(t, c)
	assert.Equal(t, "PHPSESSID", c.Name)
	assert.Equal(t, "abc123", c.Value)
	assert.True(t, c.HTTPOnly)
	assert.False(t, c.Secure)
	assert.Empty(t, c.SameSite)
}

func TestExtractSessionCookie_Attributes(t *testing.T) {
	c := ExtractSessionCookie([]string{
		"session=tok; Path=/; Secure; HttpOnly; SameSite=Strict",
	})
	require.NotNil(t, c)
	assert.True(t, c.Secure)
	assert.True(t, c.HTTPOnly)
	assert.Equal(t, "Strict", c.SameSite)
}

func TestExtractSessionCookie_AppSpecificName(t *testing.T) {
	c := ExtractSessionCookie([]string{"myapp_session=v1; Path=/"})
	require.NotNil(t, c, "names containing 'session' match the fallback heuristic")
	assert.Equal(t, "myapp_session", c.Name)
}

func TestExtractSessionCookie_NoSessionCookie(t *testing.T) {
	assert.Nil(t, ExtractSessionCookie([]string{"theme=dark", "lang=en"}))
	assert.Nil(t, ExtractSessionCookie(nil))
}

func TestParseSetCookie_Malformed(t *testing.T) {
	assert.Nil(t, parseSetCookie("no-equals-sign"))
	assert.Nil(t, parseSetCookie("=value-without-name"))
}
