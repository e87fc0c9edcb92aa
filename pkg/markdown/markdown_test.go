package markdown

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRender_Basic(t *testing.T) {
	html := string(Render("# Summary\n\nThis video covers **goroutines**."))
	require.Contains(t, html, "<h1")
	require.Contains(t, html, "<strong>goroutines</strong>")
}

func TestRender_SanitizesScript(t *testing.T) {
	html := string(Render(`hello <script>alert("x")</script> world`))
	require.NotContains(t, html, "<script")
	require.Contains(t, html, "hello")
}

func TestRender_Empty(t *testing.T) {
	require.Empty(t, string(Render("")))
}

func TestPlainText_StripsMarkup(t *testing.T) {
	text := PlainText("## Intro\n\nA *short* talk about [channels](https://go.dev).")
	require.NotContains(t, text, "<")
	require.Contains(t, text, "short")
	require.Contains(t, text, "channels")
}
