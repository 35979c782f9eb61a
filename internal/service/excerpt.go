package service

import (
	"bytes"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

const (
	excerptMaxRunes = 200
	wordsPerMinute  = 200
)

var (
	// raw HTML must survive rendering so the strict policy can strip it to text
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
	)
	textPolicy = bluemonday.StrictPolicy()
)

// PlainText renders markdown (or raw HTML) content and strips every tag,
// returning whitespace-collapsed text.
func PlainText(content string) string {
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(content), &buf); err != nil {
		buf.Reset()
		buf.WriteString(content)
	}
	// StrictPolicy leaves entities escaped
	text := html.UnescapeString(textPolicy.Sanitize(buf.String()))
	return strings.Join(strings.Fields(text), " ")
}

// BuildExcerpt returns the first excerptMaxRunes runes of the content's
// plain text, cut at a word boundary when possible.
func BuildExcerpt(content string) string {
	text := PlainText(content)
	if utf8.RuneCountInString(text) <= excerptMaxRunes {
		return text
	}

	runes := []rune(text)
	cut := string(runes[:excerptMaxRunes])
	if idx := strings.LastIndex(cut, " "); idx >= 0 && utf8.RuneCountInString(cut[:idx]) > excerptMaxRunes/2 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut) + "…"
}

func calculateReadingTime(content string) int {
	words := len(strings.Fields(PlainText(content)))
	if words == 0 {
		return 0
	}

	minutes := words / wordsPerMinute
	if words%wordsPerMinute != 0 {
		minutes++
	}
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}
