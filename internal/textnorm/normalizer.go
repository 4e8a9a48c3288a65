package textnorm

import (
	"regexp"
	"strings"
	"unicode"
)

// Normalize strips markup and boilerplate from raw scraped text and segments
// the remainder into plain prose blocks, ordered as they appeared.
func Normalize(raw string) []string {
	text := stripImages(raw)
	text = stripLinks(text)
	text = stripHTMLTags(text)
	text = stripBareURLs(text)
	text = dropBoilerplateLines(text)

	blocks := segment(text)

	out := make([]string, 0, len(blocks))
	for _, b := range blocks {
		b = stripInlineMarkup(b)
		b = CollapseWhitespace(b)
		if !keepBlock(b) {
			continue
		}
		out = append(out, b)
	}
	return out
}

const minBlockLen = 20

var (
	imageRe     = regexp.MustCompile(`!\[([^\]]*)\]\(\s*[^)]*\)`)
	linkRe      = regexp.MustCompile(`\[([^\]]*)\]\(\s*[^)]*\)`)
	htmlBreakRe = regexp.MustCompile(`(?i)<\s*(br\s*/?|/p|/div|/li|/h[1-6]|/tr|/section)\s*>`)
	htmlTagRe   = regexp.MustCompile(`<[^<>]+>`)
	bareURLRe   = regexp.MustCompile(`https?://[^\s)\]>"']+`)
	headerRe    = regexp.MustCompile(`^\s{0,3}(#{1,6})\s+(.+?)\s*#*\s*$`)
	fenceRe     = regexp.MustCompile("^\\s*(```|~~~)")
	listMarkRe  = regexp.MustCompile(`^\s*([-*+•]|\d+[.)])\s+`)
	emphasisRe  = regexp.MustCompile(`(\*{1,3}|_{1,3}|~~|` + "`" + `)`)
	spaceRe     = regexp.MustCompile(`\s+`)

	// Headers worth keeping as their own section when segmenting.
	statusHeaderRe = regexp.MustCompile(`(?i)\b(alert|fire|danger|restriction|status|condition)`)

	// Dense runs of proper-noun organization names are almost always
	// navigation link lists, not content.
	orgNameRe = regexp.MustCompile(`\b[A-Z][a-z]+ [A-Z][a-z]+ (Forest|Park|Service|District|Bureau|Department|Agency|Office|Center|Area|Association|Council|Commission|Monument)\b`)
)

var boilerplatePhrases = []string{
	"skip to main content",
	"an official website of the united states government",
	"official websites use .gov",
	"a .gov website belongs to",
	"secure .gov websites use https",
	"here's how you know",
	"lock a locked padlock",
	"javascript is required",
	"enable javascript",
	"privacy policy",
	"terms of use",
	"accessibility statement",
	"freedom of information act",
	"cookie settings",
	"this site uses cookies",
	"sign up for email updates",
	"subscribe to our newsletter",
	"follow us on",
	"share this page",
	"was this page helpful",
	"back to top",
	"toggle navigation",
	"main navigation",
	"breadcrumb",
}

var statusKeywords = []string{
	"closed", "closure", "open", "restricted", "restriction",
	"chains", "fire", "alert", "danger", "condition", "advisory",
}

func stripImages(s string) string {
	return imageRe.ReplaceAllString(s, "$1")
}

func stripLinks(s string) string {
	return linkRe.ReplaceAllString(s, "$1")
}

func stripHTMLTags(s string) string {
	if !strings.ContainsRune(s, '<') {
		return s
	}
	s = htmlBreakRe.ReplaceAllString(s, "\n")
	return htmlTagRe.ReplaceAllString(s, " ")
}

func stripBareURLs(s string) string {
	return bareURLRe.ReplaceAllString(s, " ")
}

func dropBoilerplateLines(s string) string {
	lines := strings.Split(s, "\n")
	kept := make([]string, 0, len(lines))
	for _, ln := range lines {
		lower := strings.ToLower(ln)
		drop := false
		for _, phrase := range boilerplatePhrases {
			if strings.Contains(lower, phrase) {
				drop = true
				break
			}
		}
		if drop {
			continue
		}
		kept = append(kept, ln)
	}
	return strings.Join(kept, "\n")
}

// segment splits normalized text into blocks. When the text contains headers
// matching the status-relevant pattern, each such header-delimited section
// becomes one "<header>: <body>" block; otherwise paragraph and sentence
// boundaries are used.
func segment(text string) []string {
	sections := headerSections(text)
	if len(sections) > 0 {
		return sections
	}
	return paragraphBlocks(text)
}

type section struct {
	header string
	body   []string
}

func headerSections(text string) []string {
	lines := strings.Split(text, "\n")

	var preamble []string
	var sections []section
	var current *section
	matched := false
	for _, ln := range lines {
		if m := headerRe.FindStringSubmatch(ln); m != nil {
			h := strings.TrimSpace(m[2])
			sections = append(sections, section{header: h})
			current = &sections[len(sections)-1]
			if statusHeaderRe.MatchString(h) {
				matched = true
			}
			continue
		}
		if current != nil {
			current.body = append(current.body, ln)
		} else {
			preamble = append(preamble, ln)
		}
	}
	if !matched {
		return nil
	}

	out := make([]string, 0, len(sections)+1)
	// Prose above the first header is often the live alert banner; keep it
	// as a leading block.
	if pre := strings.TrimSpace(strings.Join(preamble, " ")); pre != "" {
		out = append(out, pre)
	}
	for _, sec := range sections {
		if !statusHeaderRe.MatchString(sec.header) {
			continue
		}
		body := strings.TrimSpace(strings.Join(sec.body, " "))
		if body == "" {
			continue
		}
		out = append(out, sec.header+": "+body)
	}
	return out
}

func paragraphBlocks(text string) []string {
	paras := regexp.MustCompile(`\n\s*\n`).Split(text, -1)
	out := make([]string, 0, len(paras))
	for _, p := range paras {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if len(p) > 600 {
			out = append(out, splitSentences(p, 600)...)
			continue
		}
		out = append(out, p)
	}
	return out
}

// splitSentences chunks an over-long paragraph at sentence boundaries,
// packing sentences until the target size is reached.
func splitSentences(p string, target int) []string {
	var chunks []string
	var cur strings.Builder
	start := 0
	flush := func() {
		if cur.Len() > 0 {
			chunks = append(chunks, strings.TrimSpace(cur.String()))
			cur.Reset()
		}
	}
	for i := 0; i < len(p); i++ {
		c := p[i]
		if c == '.' || c == '!' || c == '?' {
			end := i + 1
			if end >= len(p) || p[end] == ' ' || p[end] == '\n' {
				cur.WriteString(p[start:end])
				start = end
				if cur.Len() >= target {
					flush()
				}
			}
		}
	}
	if start < len(p) {
		cur.WriteString(p[start:])
	}
	flush()
	return chunks
}

func stripInlineMarkup(b string) string {
	lines := strings.Split(b, "\n")
	for i, ln := range lines {
		if fenceRe.MatchString(ln) {
			lines[i] = ""
			continue
		}
		if m := headerRe.FindStringSubmatch(ln); m != nil {
			ln = m[2]
		}
		ln = listMarkRe.ReplaceAllString(ln, "")
		ln = emphasisRe.ReplaceAllString(ln, "")
		lines[i] = ln
	}
	return strings.Join(lines, "\n")
}

// CollapseWhitespace folds all whitespace runs into single spaces.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

func keepBlock(b string) bool {
	if len(b) < minBlockLen {
		return false
	}
	if alphaRatio(b) < 0.3 {
		return false
	}
	if isOrgLinkList(b) {
		return false
	}
	return true
}

func alphaRatio(s string) float64 {
	letters, total := 0, 0
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(letters) / float64(total)
}

func isOrgLinkList(b string) bool {
	if len(b) >= 300 {
		return false
	}
	if len(orgNameRe.FindAllString(b, 3)) <= 2 {
		return false
	}
	lower := strings.ToLower(b)
	for _, kw := range statusKeywords {
		if strings.Contains(lower, kw) {
			return false
		}
	}
	return true
}
