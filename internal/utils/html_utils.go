package utils

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxLinkTextRunes = 60

// EnhanceCommentHTML 为评论中的图片和链接补充属性，并缩短过长的链接文字
func EnhanceCommentHTML(htmlStr string) string {
	if htmlStr == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return htmlStr
	}

	doc.Find("img").Each(func(i int, s *goquery.Selection) {
		s.SetAttr("referrerpolicy", "no-referrer")
		s.SetAttr("loading", "lazy")
		s.SetAttr("decoding", "async")
	})

	doc.Find("a").Each(func(i int, s *goquery.Selection) {
		s.SetAttr("rel", "nofollow noopener noreferrer ugc")

		// 只处理纯文本链接（自动识别出来的长 URL）
		if s.Children().Length() > 0 {
			return
		}
		text := []rune(strings.TrimSpace(s.Text()))
		if len(text) > maxLinkTextRunes {
			s.SetText(string(text[:maxLinkTextRunes-1]) + "…")
		}
	})

	// goquery renders full document tags if missing, we just want the body content
	out, _ := doc.Find("body").Html()
	if out == "" {
		out, _ = doc.Html()
	}
	return out
}
