package identity

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

const testUUID = "12345678-1234-1234-1234-123456789abc"

func doc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return d
}

func TestResolveCurrentUserID_InlineScriptShapes(t *testing.T) {
	tests := []struct {
		name string
		html string
	}{
		{
			"user object",
			`<script>var state = {"user":{"uuid":"` + testUUID + `"}};</script>`,
		},
		{
			"bare uuid",
			`<script>var x = {"uuid":"` + testUUID + `"};</script>`,
		},
		{
			"window global",
			`<script>window.__app = {"uuid":"` + testUUID + `"};</script>`,
		},
		{
			"currentUser object",
			`<script>load({"currentUser":{"uuid":"` + testUUID + `"}});</script>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ResolveCurrentUserID(doc(t, "<html><head>"+tt.html+"</head><body></body></html>"))
			require.NoError(t, err)
			require.Equal(t, testUUID, id)
		})
	}
}

func TestResolveCurrentUserID_IgnoresExternalScripts(t *testing.T) {
	html := `<html><head><script src="/app.js">var u = {"uuid":"` + testUUID + `"};</script></head><body></body></html>`
	_, err := ResolveCurrentUserID(doc(t, html))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestResolveCurrentUserID_DataAttribute(t *testing.T) {
	html := `<html><body><div data-current-user-uuid="` + testUUID + `"></div></body></html>`
	id, err := ResolveCurrentUserID(doc(t, html))
	require.NoError(t, err)
	require.Equal(t, testUUID, id)
}

func TestResolveCurrentUserID_ProfileAnchor(t *testing.T) {
	for _, href := range []string{"/users/" + testUUID, "/profile/" + testUUID + "/settings"} {
		html := `<html><body><a href="` + href + `">me</a></body></html>`
		id, err := ResolveCurrentUserID(doc(t, html))
		require.NoError(t, err)
		require.Equal(t, testUUID, id)
	}
}

func TestResolveCurrentUserID_UserObjectScript(t *testing.T) {
	html := `<html><body><script type="application/json" id="user-data">{"user":{"uuid":"` + testUUID + `"}}</script></body></html>`
	id, err := ResolveCurrentUserID(doc(t, html))
	require.NoError(t, err)
	require.Equal(t, testUUID, id)
}

func TestResolveCurrentUserID_MetaTag(t *testing.T) {
	html := `<html><head><meta name="app-user-id" content="` + testUUID + `"></head><body></body></html>`
	id, err := ResolveCurrentUserID(doc(t, html))
	require.NoError(t, err)
	require.Equal(t, testUUID, id)
}

func TestResolveCurrentUserID_FirstProbeWins(t *testing.T) {
	other := "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee"
	html := `<html><head>
		<script>var state = {"user":{"uuid":"` + testUUID + `"}};</script>
		<meta name="user" content="` + other + `">
	</head><body><a href="/users/` + other + `">x</a></body></html>`

	id, err := ResolveCurrentUserID(doc(t, html))
	require.NoError(t, err)
	require.Equal(t, testUUID, id)
}

func TestResolveCurrentUserID_NotFound(t *testing.T) {
	tests := []string{
		`<html><body><p>nothing here</p></body></html>`,
		`<html><body><div data-user-uuid="not-a-uuid"></div></body></html>`,
		`<html><body><a href="/users/42">me</a></body></html>`,
	}
	for _, html := range tests {
		_, err := ResolveCurrentUserID(doc(t, html))
		require.ErrorIs(t, err, ErrNotFound)
	}
}

func TestIsValidUserID(t *testing.T) {
	require.True(t, IsValidUserID(testUUID))
	require.True(t, IsValidUserID(strings.ToUpper(testUUID)))
	require.False(t, IsValidUserID(""))
	require.False(t, IsValidUserID("42"))
	require.False(t, IsValidUserID(testUUID+"0"))
	require.False(t, IsValidUserID("urn:uuid:"+testUUID))
}
