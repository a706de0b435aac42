package linking

import (
	"context"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ruanshan4896/tintuc24h-sub000/internal/domain"
	"github.com/ruanshan4896/tintuc24h-sub000/internal/ports"
	"github.com/ruanshan4896/tintuc24h-sub000/internal/slug"
)

const (
	// minSentenceGap is the minimum paragraph-index distance between the
	// home and category insertions.
	minSentenceGap = 4
	// fallbackGap is the relaxed distance used by the category fallback
	// tiers.
	fallbackGap = 3
	// maxRelatedLookup bounds the related-article query.
	maxRelatedLookup = 10
	// maxTagsScanned caps how many of the article's own tags are tried.
	maxTagsScanned = 5
	// maxTagLinks caps inserted tag links.
	maxTagLinks = 3
	// minTagRunes filters out tags too short to link meaningfully.
	minTagRunes = 3
)

// sourcingKeywords mark paragraphs that discuss information or sourcing,
// the preferred neighborhood for the home-attribution sentence.
var sourcingKeywords = []string{"thông tin", "theo", "nguồn", "cho biết", "ghi nhận"}

// tagStopWords are common words never used as tag-link anchors.
var tagStopWords = map[string]struct{}{
	"tin": {}, "bài": {}, "của": {}, "và": {}, "các": {},
	"cho": {}, "với": {}, "này": {}, "the": {}, "and": {}, "new": {}, "news": {},
}

// Engine inserts contextual internal links into a finished article body.
// Every sub-step is best-effort: a result missing one link type is valid
// output. Given identical inputs the output is byte-identical across runs.
type Engine struct {
	brand   string
	related ports.RelatedArticleFinder
	logger  *slog.Logger
}

// NewEngine wires the brand name and the related-article lookup; related may
// be nil, which disables tag links.
func NewEngine(brand string, related ports.RelatedArticleFinder, logger *slog.Logger) *Engine {
	return &Engine{brand: brand, related: related, logger: logger}
}

// AddLinks applies the four link insertions: self link on the main keyword,
// home-attribution sentence, category-attribution sentence and tag-derived
// links to related articles.
func (e *Engine) AddLinks(ctx context.Context, content, title, articleSlug, category string, tags []string) string {
	lines := strings.Split(content, "\n")

	var related []domain.Article
	if e.related != nil && len(tags) > 0 {
		var err error
		related, err = e.related.FindRelatedByTags(ctx, tags, articleSlug, maxRelatedLookup)
		if err != nil {
			e.debug("related lookup failed", "error", err)
			related = nil
		}
	}

	lines = e.insertSelfLink(lines, title, articleSlug, tags, related)
	lines, homeIdx := e.insertHomeSentence(lines, articleSlug)
	lines = e.insertCategorySentence(lines, articleSlug, category, homeIdx)
	lines = e.insertTagLinks(lines, articleSlug, tags, related)

	return strings.Join(lines, "\n")
}

// insertSelfLink replaces the first whole-word occurrence of the main
// keyword in an eligible paragraph with a link to the article itself. Tags
// that already have a related-article match are left for the tag-link step
// so the two steps never fight over the same anchor text.
func (e *Engine) insertSelfLink(lines []string, title, articleSlug string, tags []string, related []domain.Article) []string {
	keyword := mainKeyword(title, tags, related)
	if keyword == "" {
		return lines
	}

	mask := eligibleMask(lines)
	for i, line := range lines {
		if !mask[i] {
			continue
		}
		if linked, ok := linkWholeWord(line, keyword, "/articles/"+articleSlug); ok {
			lines[i] = linked
			return lines
		}
	}
	return lines
}

// insertHomeSentence places the brand-attribution sentence after a paragraph
// in the middle third of the document, preferring paragraphs that discuss
// information or sourcing. Returns the line index of the inserted sentence,
// or -1.
func (e *Engine) insertHomeSentence(lines []string, articleSlug string) ([]string, int) {
	sentence := strings.ReplaceAll(
		pickTemplate(homeTemplates, articleSlug, "home"),
		"{brand}", "["+e.brand+"](/)")

	mask := eligibleMask(lines)
	lo := len(lines) * 30 / 100
	hi := len(lines) * 70 / 100

	anchor := -1
	for i := lo; i <= hi && i < len(lines); i++ {
		if mask[i] && containsAnyFold(lines[i], sourcingKeywords) {
			anchor = i
			break
		}
	}
	if anchor < 0 {
		for i := lo; i <= hi && i < len(lines); i++ {
			if mask[i] {
				anchor = i
				break
			}
		}
	}
	if anchor < 0 {
		return lines, -1
	}

	return insertParagraph(lines, anchor, sentence), anchor + 2
}

// insertCategorySentence places the category-attribution sentence at least
// minSentenceGap paragraphs from the home sentence, in the opposite half of
// the document, with two relaxed fallback tiers before giving up.
func (e *Engine) insertCategorySentence(lines []string, articleSlug, category string, homeIdx int) []string {
	if strings.TrimSpace(category) == "" {
		return lines
	}

	link := "[" + category + "](/category/" + slug.GenerateWithFallback(category, "tin-tuc") + ")"
	sentence := strings.ReplaceAll(
		pickTemplate(categoryTemplates, articleSlug, "category"),
		"{category}", link)

	mask := eligibleMask(lines)
	mid := len(lines) / 2

	farEnough := func(i, gap int) bool {
		return homeIdx < 0 || abs(i-homeIdx) >= gap
	}

	// Primary: opposite half from the home insertion.
	start, end := 0, len(lines)
	if homeIdx >= 0 {
		if homeIdx < mid {
			start = mid
		} else {
			end = mid
		}
	}
	for i := start; i < end; i++ {
		if mask[i] && farEnough(i, minSentenceGap) {
			return insertParagraph(lines, i, sentence)
		}
	}

	// Tier a: right after the introduction.
	for i := 3; i <= 15 && i < len(lines); i++ {
		if mask[i] && farEnough(i, fallbackGap) {
			return insertParagraph(lines, i, sentence)
		}
	}

	// Tier b: among the last ten eligible paragraphs.
	eligible := []int{}
	for i := range lines {
		if mask[i] {
			eligible = append(eligible, i)
		}
	}
	if len(eligible) > 10 {
		eligible = eligible[len(eligible)-10:]
	}
	for _, i := range eligible {
		if farEnough(i, fallbackGap) {
			return insertParagraph(lines, i, sentence)
		}
	}

	// Tier c: no eligible separated position, insert nothing.
	return lines
}

// insertTagLinks links up to maxTagLinks tag occurrences to related
// published articles sharing that tag.
func (e *Engine) insertTagLinks(lines []string, articleSlug string, tags []string, related []domain.Article) []string {
	if len(related) == 0 || len(tags) == 0 {
		return lines
	}

	inserted := 0
	scanned := 0
	for _, tag := range tags {
		if inserted >= maxTagLinks || scanned >= maxTagsScanned {
			break
		}
		scanned++
		if !meaningfulTag(tag) {
			continue
		}
		target := matchRelated(related, tag)
		if target == "" {
			continue
		}

		mask := eligibleMask(lines)
		for i, line := range lines {
			if !mask[i] {
				continue
			}
			if linked, ok := linkWholeWord(line, tag, "/articles/"+target); ok {
				lines[i] = linked
				inserted++
				break
			}
		}
	}
	return lines
}

// mainKeyword prefers the first meaningful tag not claimed by a related
// article, else the first two words of the title split on whitespace,
// colons and dashes.
func mainKeyword(title string, tags []string, related []domain.Article) string {
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if utf8.RuneCountInString(tag) > 3 && !isNumeric(tag) && matchRelated(related, tag) == "" {
			return tag
		}
	}

	fields := strings.FieldsFunc(title, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ':' || r == '-' || r == '–'
	})
	if len(fields) >= 2 {
		return fields[0] + " " + fields[1]
	}
	if len(fields) == 1 {
		return fields[0]
	}
	return ""
}

// eligibleMask marks lines that may receive a link: not headings, fence
// delimiters or fenced content, image lines, caption lines, blanks, or
// lines already carrying an internal link.
func eligibleMask(lines []string) []bool {
	mask := make([]bool, len(lines))
	inFence := false
	for i, raw := range lines {
		t := strings.TrimSpace(raw)
		if strings.HasPrefix(t, "```") {
			inFence = !inFence
			continue
		}
		if inFence || t == "" {
			continue
		}
		if strings.HasPrefix(t, "#") || strings.HasPrefix(t, "![") || strings.HasPrefix(t, "*") {
			continue
		}
		if strings.Contains(t, "](/articles/") || strings.Contains(t, "](/category/") || strings.Contains(t, "](/)") {
			continue
		}
		mask[i] = true
	}
	return mask
}

// insertParagraph adds a blank line plus the sentence after line i.
func insertParagraph(lines []string, i int, sentence string) []string {
	out := make([]string, 0, len(lines)+2)
	out = append(out, lines[:i+1]...)
	out = append(out, "", sentence)
	out = append(out, lines[i+1:]...)
	return out
}

// linkWholeWord replaces the first whole-word occurrence of word in line
// with a markdown link, preserving the original casing of the matched text.
func linkWholeWord(line, word, target string) (string, bool) {
	i := indexWholeWord(line, word)
	if i < 0 {
		return line, false
	}
	matched := line[i : i+len(word)]
	return line[:i] + "[" + matched + "](" + target + ")" + line[i+len(word):], true
}

// indexWholeWord finds word in s case-insensitively, requiring non-letter,
// non-digit runes (or string edges) on both sides. Matching falls back to
// case-sensitive search when lowercasing changes byte offsets.
func indexWholeWord(s, word string) int {
	if word == "" {
		return -1
	}
	haystack, needle := strings.ToLower(s), strings.ToLower(word)
	if len(haystack) != len(s) || len(needle) != len(word) {
		haystack, needle = s, word
	}

	for start := 0; start <= len(haystack)-len(needle); {
		i := strings.Index(haystack[start:], needle)
		if i < 0 {
			return -1
		}
		i += start
		if boundaryBefore(s, i) && boundaryAfter(s, i+len(needle)) {
			return i
		}
		start = i + len(needle)
	}
	return -1
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func meaningfulTag(tag string) bool {
	tag = strings.TrimSpace(tag)
	if utf8.RuneCountInString(tag) < minTagRunes || isNumeric(tag) {
		return false
	}
	_, stop := tagStopWords[strings.ToLower(tag)]
	return !stop
}

// matchRelated keeps the loose bidirectional substring match on purpose:
// short tags can match longer ones (e.g. "xe" vs "xe điện"), which mirrors
// how the article corpus is tagged.
func matchRelated(related []domain.Article, tag string) string {
	lowTag := strings.ToLower(strings.TrimSpace(tag))
	for _, art := range related {
		for _, other := range art.Tags {
			lowOther := strings.ToLower(strings.TrimSpace(other))
			if lowOther == "" {
				continue
			}
			if lowOther == lowTag || strings.Contains(lowOther, lowTag) || strings.Contains(lowTag, lowOther) {
				return art.Slug
			}
		}
	}
	return ""
}

func containsAnyFold(s string, keywords []string) bool {
	low := strings.ToLower(s)
	for _, kw := range keywords {
		if strings.Contains(low, kw) {
			return true
		}
	}
	return false
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func (e *Engine) debug(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}
