package classify

import (
	"strings"

	"trailstatus/internal/domain"
)

// One road-status provider renders its conditions as a live map whose markup
// defeats prose-level parsing, but its condition widgets carry a fixed set of
// literal labels. When enough of those labels are present we classify from
// them directly and skip the generic block pipeline.

type mapLabel struct {
	token    string
	category string
	phrase   string
}

var dynamicMapLabels = []mapLabel{
	{token: "full closure", category: "closure", phrase: "full closures"},
	{token: "road closed", category: "closure", phrase: "road closures"},
	{token: "chain control", category: "chains", phrase: "chain controls in effect"},
	{token: "chains required", category: "chains", phrase: "chain controls in effect"},
	{token: "lane closure", category: "restriction", phrase: "lane closures"},
	{token: "one way traffic control", category: "restriction", phrase: "one-way traffic control"},
	{token: "traffic incident", category: "delay", phrase: "active incidents"},
	{token: "delays", category: "delay", phrase: "traffic delays"},
}

func dynamicMapStatus(raw string) (domain.StatusCode, string, bool) {
	lower := strings.ToLower(raw)

	found := make([]mapLabel, 0, len(dynamicMapLabels))
	seen := map[string]bool{}
	categories := map[string]bool{}
	for _, l := range dynamicMapLabels {
		if !strings.Contains(lower, l.token) {
			continue
		}
		categories[l.category] = true
		if !seen[l.phrase] {
			seen[l.phrase] = true
			found = append(found, l)
		}
	}
	// A lone label is as likely a prose mention as a widget; require the
	// characteristic cluster before bypassing the generic pipeline.
	if len(found) < 2 {
		return domain.StatusUnknown, "", false
	}

	var code domain.StatusCode
	switch {
	case categories["closure"]:
		code = domain.StatusClosed
	case categories["chains"]:
		code = domain.StatusChainsRequired
	default:
		code = domain.StatusRestricted
	}

	phrases := make([]string, 0, len(found))
	for _, l := range found {
		phrases = append(phrases, l.phrase)
	}
	summary := "Road conditions map reports: " + strings.Join(phrases, "; ") + "."
	return code, TruncateAtBoundary(summary, MaxSummaryLen), true
}
