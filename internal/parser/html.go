// Package parser pulls links and readable text out of fetched pages.
package parser

import (
	"bytes"
	"iter"
	"net/url"

	"golang.org/x/net/html"
)

// Links lazily yields the absolute addresses of the anchors in content.
// Relative hrefs are resolved against base's scheme and host; hrefs that
// cannot be resolved are skipped. Tokenizing stops as soon as the
// consumer stops pulling.
func Links(content []byte, base *url.URL) iter.Seq[string] {
	return func(yield func(string) bool) {
		z := html.NewTokenizer(bytes.NewReader(content))
		for {
			switch z.Next() {
			case html.ErrorToken:
				return
			case html.StartTagToken, html.SelfClosingTagToken:
				name, hasAttr := z.TagName()
				if !hasAttr || string(name) != "a" {
					continue
				}
				if href := hrefOf(z); href != "" {
					if abs := ResolveLink(base, href); abs != "" {
						if !yield(abs) {
							return
						}
					}
				}
			}
		}
	}
}

func hrefOf(z *html.Tokenizer) string {
	for {
		key, val, more := z.TagAttr()
		if string(key) == "href" {
			return string(val)
		}
		if !more {
			return ""
		}
	}
}
