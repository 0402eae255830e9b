package ui

import (
	"regexp"
	"strings"

	markdown "github.com/MichaelMure/go-term-markdown"
	gomarkdown "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/parser"
)

var (
	inlineCodeRegex = regexp.MustCompile(`(?s)\x1b\[44;3m(.*?)\x1b\[0m`)
	mdLinkRegex     = regexp.MustCompile(`\[([^\]]+)\]\((https?://[^\)]+)\)`)
	ansiRegex       = regexp.MustCompile(`\x1b\[[0-9;]*m`)
)

// RenderMarkdown renders an assistant answer for the terminal at the given width.
func RenderMarkdown(content string, width int) string {
	if strings.TrimSpace(content) == "" {
		return DimStyle.Render("(empty answer)")
	}

	content = preprocessLinks(content)

	// Autolink off: plain URLs stay plain so the terminal can detect them
	ext := markdown.Extensions() &^ parser.Autolink
	p := parser.NewWithExtensions(ext)
	r := markdown.NewRenderer(width, 0)
	doc := p.Parse([]byte(content))
	rendered := string(gomarkdown.Render(doc, r))

	return strings.TrimRight(fixInlineCode(rendered), "\n")
}

func preprocessLinks(content string) string {
	// [text](url) → url
	return mdLinkRegex.ReplaceAllString(content, "$2")
}

func fixInlineCode(s string) string {
	// Blue background + italic → red text
	return inlineCodeRegex.ReplaceAllString(s, "\x1b[31m$1\x1b[0m")
}

func stripANSI(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}
