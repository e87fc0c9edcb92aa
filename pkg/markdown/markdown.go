// Package markdown renders AI-generated markdown (video abstracts) into
// sanitized HTML. Only the markdown source is ever stored.
package markdown

import (
	"bytes"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday/v2"
)

var (
	bfRenderer = blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{
		Flags: blackfriday.Safelink | blackfriday.NofollowLinks | blackfriday.HrefTargetBlank | blackfriday.Smartypants | blackfriday.SmartypantsFractions | blackfriday.SmartypantsDashes,
	})
	bfExtensions = blackfriday.NoIntraEmphasis | blackfriday.Tables | blackfriday.FencedCode | blackfriday.Autolink | blackfriday.Strikethrough | blackfriday.SpaceHeadings | blackfriday.HeadingIDs | blackfriday.AutoHeadingIDs
	policy       = bluemonday.UGCPolicy()
	textPolicy   = bluemonday.StrictPolicy()
)

// Render converts markdown source into sanitized HTML.
func Render(source string) template.HTML {
	if source == "" {
		return ""
	}
	unsafe := blackfriday.Run([]byte(source),
		blackfriday.WithRenderer(bfRenderer),
		blackfriday.WithExtensions(bfExtensions),
	)
	return template.HTML(bytes.TrimSpace(policy.SanitizeBytes(unsafe)))
}

// PlainText strips all markup, for snippets and search previews.
func PlainText(source string) string {
	if source == "" {
		return ""
	}
	unsafe := blackfriday.Run([]byte(source),
		blackfriday.WithRenderer(bfRenderer),
		blackfriday.WithExtensions(bfExtensions),
	)
	return string(bytes.TrimSpace(textPolicy.SanitizeBytes(unsafe)))
}
