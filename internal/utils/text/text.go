// Package text provides small text helpers shared by the scraper and its outputs.
package text

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// blockSelector lists elements whose boundaries separate words.
const blockSelector = "p, br, div, li, ul, ol, tr, td, th, h1, h2, h3, h4, h5, h6, blockquote, pre, hr"

// StripTags returns the plain text of an HTML fragment.
// Entities are decoded, script/style bodies are dropped and runs of
// whitespace collapse to a single space.
func StripTags(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return collapse(fragment)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return collapse(fragment)
	}
	doc.Find("script, style, noscript").Remove()
	// ブロック要素の境界で単語が連結されないよう空白を挟む
	doc.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		s.AfterHtml(" ")
	})

	return collapse(doc.Text())
}

// CountRunes counts Unicode characters, not bytes.
func CountRunes(s string) int {
	return len([]rune(s))
}

// Truncate shortens s to at most max runes, appending "…" when it cuts.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if CountRunes(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max]) + "…"
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
