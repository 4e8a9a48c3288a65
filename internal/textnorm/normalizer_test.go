package textnorm

import (
	"strings"
	"testing"
)

func TestNormalizeStripsMarkup(t *testing.T) {
	raw := "The **trail is closed** beyond the [second bridge](https://example.com/bridge) due to flooding. " +
		"![washout photo](https://example.com/photo.jpg) Crews expect repairs to continue through October."

	blocks := Normalize(raw)
	if len(blocks) == 0 {
		t.Fatalf("expected at least one block, got none")
	}

	joined := strings.Join(blocks, " ")
	if strings.Contains(joined, "**") || strings.Contains(joined, "](") {
		t.Errorf("markup survived normalization: %q", joined)
	}
	if strings.Contains(joined, "https://") {
		t.Errorf("bare URL survived normalization: %q", joined)
	}
	if !strings.Contains(joined, "trail is closed") {
		t.Errorf("content text lost: %q", joined)
	}
	if !strings.Contains(joined, "second bridge") {
		t.Errorf("link anchor text lost: %q", joined)
	}
}

func TestNormalizeStripsHTML(t *testing.T) {
	raw := "<div class=\"content\"><p>Chains are required on all vehicles above the gate.</p>" +
		"<p>Expect winter driving conditions through April.</p></div>"

	blocks := Normalize(raw)
	joined := strings.Join(blocks, " ")
	if strings.ContainsRune(joined, '<') {
		t.Errorf("html tags survived: %q", joined)
	}
	if !strings.Contains(joined, "Chains are required") {
		t.Errorf("content text lost: %q", joined)
	}
}

func TestNormalizeDropsBoilerplate(t *testing.T) {
	raw := "Skip to main content\n" +
		"An official website of the United States government\n" +
		"Here's how you know\n\n" +
		"The access road remains closed past milepost 12 due to washout damage.\n\n" +
		"Privacy Policy\nBack to top\n"

	blocks := Normalize(raw)
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d: %v", len(blocks), blocks)
	}
	if !strings.Contains(blocks[0], "closed past milepost 12") {
		t.Errorf("content block wrong: %q", blocks[0])
	}
}

func TestNormalizeHeaderSections(t *testing.T) {
	raw := "# Visiting Hours\nOpen dawn to dusk year round.\n\n" +
		"# Fire Restrictions\nStage 2 fire restrictions are in effect. No campfires permitted anywhere in the district.\n"

	blocks := Normalize(raw)
	if len(blocks) != 1 {
		t.Fatalf("expected only status-relevant section, got %d: %v", len(blocks), blocks)
	}
	if !strings.HasPrefix(blocks[0], "Fire Restrictions: ") {
		t.Errorf("header not prefixed onto body: %q", blocks[0])
	}
}

func TestNormalizeKeepsPreHeaderAlert(t *testing.T) {
	raw := "Storm damage has closed the upper access road until further notice.\n\n" +
		"# Visiting Hours\nOpen dawn to dusk year round.\n\n" +
		"# Fire Restrictions\nStage 2 fire restrictions are in effect.\n"

	blocks := Normalize(raw)
	if len(blocks) != 2 {
		t.Fatalf("expected preamble + status section, got %d: %v", len(blocks), blocks)
	}
	if !strings.Contains(blocks[0], "closed the upper access road") {
		t.Errorf("preamble alert dropped: %q", blocks[0])
	}
	if !strings.HasPrefix(blocks[1], "Fire Restrictions: ") {
		t.Errorf("status section wrong: %q", blocks[1])
	}
}

func TestNormalizeDropsShortAndJunkBlocks(t *testing.T) {
	raw := "Ok.\n\n==== ---- 1234 5678 ****\n\n" +
		"Trailhead parking remains open but the upper loop is restricted to foot traffic."

	blocks := Normalize(raw)
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d: %v", len(blocks), blocks)
	}
	if !strings.Contains(blocks[0], "upper loop is restricted") {
		t.Errorf("wrong block kept: %q", blocks[0])
	}
}

func TestNormalizeDropsOrgLinkLists(t *testing.T) {
	raw := "Mount Baker National Forest Gifford Pinchot National Forest Olympic National Park Colville National Forest\n\n" +
		"The east entrance road is closed for the season."

	blocks := Normalize(raw)
	if len(blocks) != 1 {
		t.Fatalf("expected org list to be dropped, got %d blocks: %v", len(blocks), blocks)
	}
	if !strings.Contains(blocks[0], "east entrance road is closed") {
		t.Errorf("wrong block kept: %q", blocks[0])
	}
}

func TestNormalizeIdempotentOnPlainText(t *testing.T) {
	plain := "The gate at the winter closure point is open and the road is clear of snow."

	first := Normalize(plain)
	if len(first) != 1 {
		t.Fatalf("expected 1 block, got %d", len(first))
	}
	second := Normalize(first[0])
	if len(second) != 1 || second[0] != first[0] {
		t.Errorf("normalization not stable: %q vs %q", first, second)
	}
}

func TestNormalizeSplitsLongParagraphs(t *testing.T) {
	sentence := "The road crew reported more storm damage near the upper switchbacks again today. "
	raw := strings.Repeat(sentence, 20)

	blocks := Normalize(raw)
	if len(blocks) < 2 {
		t.Fatalf("expected long paragraph to split, got %d blocks", len(blocks))
	}
	for _, b := range blocks {
		if len(b) > 700 {
			t.Errorf("block too long after split: %d chars", len(b))
		}
	}
}

func TestCollapseWhitespace(t *testing.T) {
	got := CollapseWhitespace("  a\t b\n\nc  ")
	if got != "a b c" {
		t.Errorf("got %q", got)
	}
}
