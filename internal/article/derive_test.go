package article

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID_SlugAndTimestamp(t *testing.T) {
	now := time.UnixMilli(1700000000000)

	id := NewID("Markets Rally: Sensex Up 2%!", now)

	assert.Equal(t, "markets_rally_sensex_up_2_1700000000000", id)
}

func TestNewID_TruncatesLongTitles(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	title := strings.Repeat("verylongword ", 10)

	id := NewID(title, now)

	slug := strings.TrimSuffix(id, "_1700000000000")
	assert.Len(t, slug, 50)
}

func TestFingerprint_Deterministic(t *testing.T) {
	a := Fingerprint("Storm hits coast", "https://example.com/storm", "2025-01-02")
	b := Fingerprint("Storm hits coast", "https://example.com/storm", "2025-01-02")

	require.Len(t, a, 32)
	assert.Equal(t, a, b)
}

func TestFingerprint_ChangesWithAnyField(t *testing.T) {
	base := Fingerprint("title", "link", "date")

	assert.NotEqual(t, base, Fingerprint("title2", "link", "date"))
	assert.NotEqual(t, base, Fingerprint("title", "link2", "date"))
	assert.NotEqual(t, base, Fingerprint("title", "link", "date2"))
}

func TestFingerprint_EmptyFieldsAllowed(t *testing.T) {
	assert.Len(t, Fingerprint("", "", ""), 32)
}

func TestExtractKeywords_DropsStopWordsAndShortTokens(t *testing.T) {
	got := ExtractKeywords("The Quick Fox Jumps")

	assert.Equal(t, []string{"quick", "fox", "jumps"}, got)
	assert.NotContains(t, got, "the")
}

func TestExtractKeywords_StripsPunctuationAndLowercases(t *testing.T) {
	got := ExtractKeywords("Breaking: India's GDP grows 7.8%, say economists!")

	assert.Equal(t, []string{"breaking", "india", "gdp", "grows", "say", "economists"}, got)
}

func TestExtractKeywords_CapsAtTen(t *testing.T) {
	got := ExtractKeywords(strings.Repeat("keyword ", 25))

	assert.Len(t, got, 10)
}

func TestExtractKeywords_EmptyInput(t *testing.T) {
	assert.Empty(t, ExtractKeywords(""))
}

func TestComplete(t *testing.T) {
	full := Article{Title: "t", ImageURL: "https://img"}
	assert.True(t, full.Complete())

	assert.False(t, (&Article{ImageURL: "https://img"}).Complete())
	assert.False(t, (&Article{Title: "t"}).Complete())
}
