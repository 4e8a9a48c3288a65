package classify

import (
	"strings"

	"trailstatus/internal/domain"
	"trailstatus/internal/textnorm"
)

// Keyword groups for status inference. The evaluation order below is
// load-bearing: the categories overlap lexically, and "lane closure" or
// "construction" must resolve as restricted before the weaker "closed"
// match is ever consulted.
var (
	restrictedKeywords = []string{
		"restricted",
		"permit required",
		"lane closure",
		"construction",
		"accident",
		"incident",
		"delay",
	}

	chainsKeywords = []string{
		"chains required",
		"chain control",
		"snow chains",
	}

	fullClosurePhrases = []string{
		"road closed",
		"full closure",
		"fully closed",
		"temporarily closed",
		"permanently closed",
		"closed until further notice",
	}

	closedExclusions = []string{
		"lane closure",
		"construction",
		"restricted",
	}

	openKeywords = []string{
		"open",
		"accessible",
		"available",
	}
)

// InferStatus maps normalized prose to the status taxonomy. Checks run in
// fixed precedence: restricted, chains, closed, open, unknown.
func InferStatus(text string) domain.StatusCode {
	t := strings.ToLower(text)
	if strings.TrimSpace(t) == "" {
		return domain.StatusUnknown
	}

	if containsAny(t, restrictedKeywords) {
		return domain.StatusRestricted
	}
	if containsAny(t, chainsKeywords) {
		return domain.StatusChainsRequired
	}
	if containsAny(t, fullClosurePhrases) {
		return domain.StatusClosed
	}
	if strings.Contains(t, "closed") && !containsAny(t, closedExclusions) {
		return domain.StatusClosed
	}
	if containsAny(t, openKeywords) {
		return domain.StatusOpen
	}
	return domain.StatusUnknown
}

// Content classifies raw scraped text into a status code plus a bounded
// human summary.
func Content(raw string) (domain.StatusCode, string) {
	blocks := textnorm.Normalize(raw)
	code := InferStatus(strings.Join(blocks, " "))
	summary := DetailedSummary(blocks)
	return code, summary
}

// DynamicContent classifies pages from the known highly-dynamic map provider.
// A pre-pass reads the provider's structured widget labels straight from the
// raw markup, since its rendered content defeats prose-level parsing; pages
// without the label cluster fall through to the generic pipeline.
func DynamicContent(raw string) (domain.StatusCode, string) {
	if code, summary, ok := dynamicMapStatus(raw); ok {
		return code, summary
	}
	return Content(raw)
}

func containsAny(t string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(t, kw) {
			return true
		}
	}
	return false
}
