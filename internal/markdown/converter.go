package markdown

import (
	"fmt"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"
)

// Converter turns raw article HTML into cleaned-up Markdown.
// Conversion is deterministic and idempotent: running the cleanup pass over
// its own output changes nothing.
type Converter struct {
	conv *md.Converter
}

// NewConverter builds a converter with strikethrough and table support,
// script/style removal and an image rule that drops broken images instead
// of emitting dead markdown.
func NewConverter() *Converter {
	conv := md.NewConverter("", true, nil)
	conv.Use(plugin.Strikethrough("~~"), plugin.Table())
	conv.Remove("script", "style")
	conv.AddRules(md.Rule{
		Filter: []string{"img"},
		Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
			src := strings.TrimSpace(selec.AttrOr("src", ""))
			if !ValidImageSrc(src) {
				return md.String("")
			}
			alt := strings.TrimSpace(selec.AttrOr("alt", ""))
			if title := strings.TrimSpace(selec.AttrOr("title", "")); title != "" {
				return md.String(fmt.Sprintf("![%s](%s \"%s\")", alt, src, title))
			}
			return md.String(fmt.Sprintf("![%s](%s)", alt, src))
		},
	})
	return &Converter{conv: conv}
}

// ToMarkdown converts HTML and applies the cleanup pass.
func (c *Converter) ToMarkdown(html string) (string, error) {
	out, err := c.conv.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("convert html: %w", err)
	}
	return Cleanup(out), nil
}

// ValidImageSrc rejects empty, placeholder, data-URI and obviously
// truncated image sources. Shared with the extractor and image discovery so
// all stages agree on what counts as a broken image.
func ValidImageSrc(src string) bool {
	if src == "" || src == "#" {
		return false
	}
	if len(src) < 5 {
		return false
	}
	if strings.HasPrefix(src, "data:") {
		return false
	}
	return true
}

var (
	citationMarker = regexp.MustCompile(`\[\d+\]`)
	readMoreLine   = regexp.MustCompile(`(?mi)^(xem thêm|đọc thêm|read more|see also)\b[^\n]*$`)
	attributionEnd = regexp.MustCompile(`(?mi)^(theo|nguồn|according to)[:\s][\p{L}\p{N} .,/-]{1,60}$`)
	emptyLinkText  = regexp.MustCompile(`\[\s*\]\([^()\n]*\)`)
	emptyParens    = regexp.MustCompile(`\(\s*\)`)
	emptyHeading   = regexp.MustCompile(`(?m)^#{1,6}\s*$`)
	spaceRuns      = regexp.MustCompile(`[ \t]{2,}`)
	blankLineRuns  = regexp.MustCompile(`\n{3,}`)
)

// Cleanup applies the post-conversion normalization rules: citation markers,
// boilerplate attribution fragments, empty links/parens/headings, space runs,
// per-line trimming and blank-line collapsing.
func Cleanup(s string) string {
	s = citationMarker.ReplaceAllString(s, "")
	s = readMoreLine.ReplaceAllString(s, "")
	s = attributionEnd.ReplaceAllString(s, "")
	s = emptyLinkText.ReplaceAllString(s, "")
	s = emptyParens.ReplaceAllString(s, "")
	s = emptyHeading.ReplaceAllString(s, "")
	s = spaceRuns.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	s = strings.Join(lines, "\n")

	s = blankLineRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
