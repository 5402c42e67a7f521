// Package richtext sanitises the editor's rich-text fields.
package richtext

import (
	"html"
	"sort"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	nethtml "golang.org/x/net/html"
)

var (
	strict = bluemonday.StrictPolicy()
	ugc    = bluemonday.UGCPolicy()
)

// Sanitize keeps the formatting markup a user can produce in the editor
// and drops scripts, handlers and unknown elements.
func Sanitize(rich string) string {
	return ugc.Sanitize(rich)
}

// PlainText strips markup from rich text and collapses whitespace.
func PlainText(rich string) string {
	text := html.UnescapeString(strict.Sanitize(rich))
	return strings.Join(strings.Fields(text), " ")
}

// Render returns rich unchanged when sanitising it would drop no element,
// attribute or text, and the sanitised form otherwise.
func Render(rich string) string {
	clean := ugc.Sanitize(rich)
	if sameMarkup(rich, clean) {
		return rich
	}
	return clean
}

type token struct {
	kind  nethtml.TokenType
	data  string
	attrs string
}

// tokens lists the tokens of s with text unescaped and attributes sorted,
// so that two spellings of the same markup compare equal.
func tokens(s string) []token {
	z := nethtml.NewTokenizer(strings.NewReader(s))
	var out []token
	for {
		tt := z.Next()
		if tt == nethtml.ErrorToken {
			return out
		}
		t := z.Token()
		if tt == nethtml.SelfClosingTagToken {
			tt = nethtml.StartTagToken
		}
		attrs := make([]string, 0, len(t.Attr))
		for _, a := range t.Attr {
			attrs = append(attrs, a.Namespace+":"+a.Key+"="+a.Val)
		}
		sort.Strings(attrs)
		out = append(out, token{kind: tt, data: t.Data, attrs: strings.Join(attrs, "\x00")})
	}
}

func sameMarkup(a, b string) bool {
	ta, tb := tokens(a), tokens(b)
	if len(ta) != len(tb) {
		return false
	}
	for i := range ta {
		if ta[i] != tb[i] {
			return false
		}
	}
	return true
}
