package utils

import (
	"bytes"
	stdhtml "html"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	// 评论只需要轻量 Markdown：删除线、自动链接、表情图片
	commentParser = goldmark.New(
		goldmark.WithExtensions(extension.Strikethrough, extension.Linkify),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)
	commentPolicy = bluemonday.UGCPolicy()
)

func init() {
	commentPolicy.AllowImages()
	commentPolicy.AddTargetBlankToFullyQualifiedLinks(true)
	commentPolicy.RequireNoFollowOnLinks(true)
	commentPolicy.RequireNoReferrerOnLinks(true)
}

// RenderComment converts comment markdown into sanitized HTML.
// Raw HTML in the source never survives: goldmark drops it and bluemonday cleans the rest.
func RenderComment(source string) string {
	if source == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := commentParser.Convert([]byte(source), &buf); err != nil {
		return "<p>" + stdhtml.EscapeString(source) + "</p>"
	}
	sanitized := commentPolicy.SanitizeBytes(buf.Bytes())
	return EnhanceCommentHTML(string(sanitized))
}
