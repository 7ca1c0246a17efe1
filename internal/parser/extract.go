package parser

import (
	"bytes"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

// Summary is the readable part of a page kept in the archive.
type Summary struct {
	Title string
	Text  string
	Words int
}

// Summarize cleans <body> and returns the title plus at most maxWords words
// of text from semantic tags.
func Summarize(htmlBody []byte, maxWords int) (Summary, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(htmlBody))
	if err != nil {
		return Summary{}, err
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())

	// Remove noisy nodes
	doc.Find("script, style, nav, header, footer, aside").Remove()

	sb := strings.Builder{}
	doc.Find("main, article, p, h1, h2, h3, h4, h5, h6, li").Each(func(_ int, s *goquery.Selection) {
		sb.WriteString(" ")
		sb.WriteString(strings.TrimSpace(s.Text()))
	})

	words := splitWords(sb.String())
	if maxWords > 0 && len(words) > maxWords {
		words = words[:maxWords]
	}
	return Summary{
		Title: title,
		Text:  strings.Join(words, " "),
		Words: len(words),
	}, nil
}

// helper: unicode-aware split
func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsNumber(r) })
}
