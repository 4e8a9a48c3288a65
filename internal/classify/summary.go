package classify

import (
	"regexp"
	"sort"
	"strings"
)

// MaxSummaryLen is the length budget for generated summaries.
const MaxSummaryLen = 250

const minUsableLen = 20

// AdvisorySummary is returned when no informative content survives scoring;
// fabricating an "all clear" from chrome fragments is worse than saying so.
const AdvisorySummary = "Status details could not be summarized; check the original source for current conditions."

var (
	highPriorityKeywords = []string{
		"closed", "closure", "fire", "evacuation", "restricted",
		"chains required", "chain control", "alert", "warning", "danger",
		"prohibited", "emergency",
	}
	mediumPriorityKeywords = []string{
		"access", "permit", "advisory", "delay", "construction",
		"conditions", "restriction", "hazard", "caution",
	}
	lowPriorityKeywords = []string{
		"road", "trail", "snow", "weather", "rain", "wind",
		"season", "visitor", "camping",
	}

	// Blocks matching these are boilerplate, not field conditions.
	newsArticlePatterns = []string{
		"read more", "read the full", "news release", "press release",
		"posted on", "published", "featured story", "subscribe",
		"sign up", "learn more about",
	}
	placeholderPatterns = []string{
		"no featured alerts", "no current alerts", "no alerts at this time",
		"traffic scale", "pending", "loading", "please wait",
	}

	concreteConditionRe = regexp.MustCompile(`(?i)\b(road closed|full closure|lane closure|construction|incident|washout|landslide|rockslide|flooding|downed tree)\b`)

	camelJoinRe   = regexp.MustCompile(`([a-z])([A-Z])`)
	doublePunctRe = regexp.MustCompile(`([.!?,;:])\s*([.!?,;:])`)

	errorPageMarkers = []string{
		"page not found", "404", "access denied", "an error occurred",
		"no featured alerts", "no current alerts",
	}
)

type scoredBlock struct {
	index int
	text  string
	score int
}

// scoreBlock weighs keyword hits against known low-value patterns. Weights
// mirror real-world disambiguation: a single closure keyword should outrank
// a page of topical filler, and boilerplate must never win.
func scoreBlock(block string) int {
	lower := strings.ToLower(block)
	score := 0

	for _, kw := range highPriorityKeywords {
		score += 10 * strings.Count(lower, kw)
	}
	for _, kw := range mediumPriorityKeywords {
		score += 5 * strings.Count(lower, kw)
	}
	for _, kw := range lowPriorityKeywords {
		score += strings.Count(lower, kw)
	}

	for _, pat := range newsArticlePatterns {
		if strings.Contains(lower, pat) {
			score -= 50
		}
	}
	for _, pat := range placeholderPatterns {
		if strings.Contains(lower, pat) {
			score -= 100
		}
	}

	if concreteConditionRe.MatchString(block) {
		score += 15
	}

	return score
}

// DetailedSummary concatenates the most informative normalized blocks into a
// human summary no longer than MaxSummaryLen.
func DetailedSummary(blocks []string) string {
	if len(blocks) == 0 {
		return AdvisorySummary
	}

	scored := make([]scoredBlock, 0, len(blocks))
	for i, b := range blocks {
		scored = append(scored, scoredBlock{index: i, text: b, score: scoreBlock(b)})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })

	picked := make([]scoredBlock, 0, 3)
	for _, sb := range scored {
		if sb.score <= 0 || len(picked) == 3 {
			break
		}
		picked = append(picked, sb)
	}

	if len(picked) == 0 {
		// Lower-confidence fallback: lead with whatever structurally-valid
		// prose the page offered, in page order, skipping known placeholder
		// blocks.
		for i, b := range blocks {
			if scoreBlock(b) <= -50 {
				continue
			}
			picked = append(picked, scoredBlock{index: i, text: b})
			if len(picked) == 3 {
				break
			}
		}
	}

	// Restore page order so the summary reads naturally.
	sort.Slice(picked, func(i, j int) bool { return picked[i].index < picked[j].index })

	parts := make([]string, 0, len(picked))
	for _, sb := range picked {
		parts = append(parts, sb.text)
	}
	summary := cleanArtifacts(strings.Join(parts, " "))
	summary = TruncateAtBoundary(summary, MaxSummaryLen)

	if len(summary) < minUsableLen || dominatedByMarkers(summary) {
		return AdvisorySummary
	}
	return summary
}

func cleanArtifacts(s string) string {
	s = camelJoinRe.ReplaceAllString(s, "$1 $2")
	for doublePunctRe.MatchString(s) {
		s = doublePunctRe.ReplaceAllString(s, "$1")
	}
	s = dropRepeatedTrailer(s)
	return strings.TrimSpace(s)
}

// dropRepeatedTrailer removes a duplicated trailing phrase, a common artifact
// of scraped pages that repeat an organization name at the end of content.
func dropRepeatedTrailer(s string) string {
	words := strings.Fields(s)
	for k := 6; k >= 2; k-- {
		if len(words) < 2*k {
			continue
		}
		tail := words[len(words)-k:]
		prev := words[len(words)-2*k : len(words)-k]
		if equalFold(tail, prev) {
			return strings.Join(words[:len(words)-k], " ")
		}
	}
	return s
}

func equalFold(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(strings.Trim(a[i], ".,;:"), strings.Trim(b[i], ".,;:")) {
			return false
		}
	}
	return true
}

// TruncateAtBoundary cuts s to at most max characters, preferring the last
// sentence end inside the budget and falling back to a word boundary with an
// ellipsis.
func TruncateAtBoundary(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}

	window := s[:max]
	if cut := lastSentenceEnd(window); cut >= max/3 {
		return strings.TrimSpace(window[:cut+1])
	}
	if max <= len(ellipsis) {
		return strings.TrimSpace(window)
	}
	// Leave room for the ellipsis so the result stays within max.
	window = s[:max-len(ellipsis)]
	if sp := strings.LastIndexByte(window, ' '); sp > 0 {
		return strings.TrimSpace(window[:sp]) + ellipsis
	}
	return strings.TrimSpace(window) + ellipsis
}

const ellipsis = "..."

func lastSentenceEnd(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		switch s[i] {
		case '.', '!', '?':
			return i
		}
	}
	return -1
}

func dominatedByMarkers(summary string) bool {
	lower := strings.ToLower(summary)
	for _, m := range errorPageMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
