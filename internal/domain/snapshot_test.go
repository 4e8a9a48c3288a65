package domain

import (
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

func TestNewSnapshotTruncatesRaw(t *testing.T) {
	src := SourceConfig{ID: uuid.New(), PointID: uuid.New(), Kind: KindLandStatus}
	raw := strings.Repeat("x", MaxRawPayload+500)

	snap := NewSnapshot(src, StatusOpen, "ok", raw, OutcomeSuccess)

	if len(snap.Raw) != MaxRawPayload {
		t.Errorf("raw length = %d, want %d", len(snap.Raw), MaxRawPayload)
	}
	if snap.SourceID != src.ID || snap.PointID != src.PointID {
		t.Errorf("snapshot lost source identity: %+v", snap)
	}
	if snap.ID == uuid.Nil {
		t.Errorf("snapshot id not assigned")
	}
}

func TestClampRawKeepsValidUTF8(t *testing.T) {
	// Multibyte runes straddling the byte limit must not be split.
	raw := strings.Repeat("x", MaxRawPayload-1) + strings.Repeat("é", 40)

	got := ClampRaw(raw)
	if len(got) > MaxRawPayload {
		t.Errorf("clamped length = %d, want <= %d", len(got), MaxRawPayload)
	}
	if !utf8.ValidString(got) {
		t.Errorf("clamped raw is not valid UTF-8")
	}

	short := "under the limit é"
	if ClampRaw(short) != short {
		t.Errorf("short payload must pass through unchanged")
	}
}

func TestNewSnapshotUsesClock(t *testing.T) {
	frozen := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(frozen))
	defer SetClock(nil)

	src := SourceConfig{ID: uuid.New(), PointID: uuid.New(), Kind: KindWeather}
	snap := NewSnapshot(src, StatusUnknown, "", "", OutcomeSuccess)

	if !snap.FetchedAt.Equal(frozen) {
		t.Errorf("fetched_at = %s, want %s", snap.FetchedAt, frozen)
	}
	if got := snap.Age(frozen.Add(90 * time.Minute)); got != 90*time.Minute {
		t.Errorf("age = %s", got)
	}
}

func TestParseSourceKind(t *testing.T) {
	cases := []struct {
		in   string
		want SourceKind
		ok   bool
	}{
		{"weather", KindWeather, true},
		{" Land_Status ", KindLandStatus, true},
		{"ROAD_STATUS", KindRoadStatus, true},
		{"traffic", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseSourceKind(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParseSourceKind(%q) = (%s, %v), want (%s, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestFetchErrorUserFacingSummary(t *testing.T) {
	cause := errors.New("dial tcp: refused")

	notFound := NewFetchError(FailureNotFound, "https://example.com/x", cause)
	if !strings.Contains(notFound.UserFacingSummary(), "URL may have changed") {
		t.Errorf("not_found summary = %q", notFound.UserFacingSummary())
	}

	timeout := NewFetchError(FailureTimeout, "https://example.com/x", cause)
	if !strings.Contains(timeout.UserFacingSummary(), "did not respond in time") {
		t.Errorf("timeout summary = %q", timeout.UserFacingSummary())
	}

	unavailable := NewFetchError(FailureUnavailable, "https://example.com/x", cause)
	if !strings.Contains(unavailable.UserFacingSummary(), "currently unavailable") {
		t.Errorf("unavailable summary = %q", unavailable.UserFacingSummary())
	}

	// Raw transport detail must never leak into reader-facing text.
	for _, fe := range []*FetchError{notFound, timeout, unavailable} {
		if strings.Contains(fe.UserFacingSummary(), "dial tcp") {
			t.Errorf("transport error leaked: %q", fe.UserFacingSummary())
		}
	}

	if !errors.Is(notFound, cause) {
		t.Errorf("cause not unwrapped")
	}
}
