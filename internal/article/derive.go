package article

import (
	"crypto/md5"
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const maxKeywords = 10

// stopWords are excluded from extracted keywords.
var stopWords = map[string]struct{}{
	"the": {}, "is": {}, "at": {}, "which": {}, "on": {},
	"and": {}, "a": {}, "to": {}, "are": {}, "as": {},
	"was": {}, "will": {}, "for": {}, "of": {}, "with": {}, "in": {},
}

var (
	nonSlugChars = regexp.MustCompile(`[^a-z0-9\s]`)
	nonWordChars = regexp.MustCompile(`[^\w\s]`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// NewID derives a document id from the article title: a lowercase slug capped
// at 50 characters, suffixed with the ingestion timestamp so re-ingested
// titles never collide within a category collection.
func NewID(title string, now time.Time) string {
	slug := strings.ToLower(title)
	slug = nonSlugChars.ReplaceAllString(slug, "")
	slug = whitespace.ReplaceAllString(slug, "_")
	if len(slug) > 50 {
		slug = slug[:50]
	}
	return slug + "_" + strconv.FormatInt(now.UnixMilli(), 10)
}

// Fingerprint hashes the (title, link, pubDate) tuple into a stable content
// fingerprint. Identical tuples always hash identically; the fingerprint is
// the exact-duplicate lookup key at write time. Any field may be empty.
func Fingerprint(title, link, pubDate string) string {
	sum := md5.Sum([]byte(title + link + pubDate))
	return hex.EncodeToString(sum[:])
}

// ExtractKeywords tokenizes free text into at most 10 lowercase keywords:
// non-word characters are stripped, tokens of length <= 2 and stop words are
// dropped, and insertion order follows first occurrence in the text.
func ExtractKeywords(text string) []string {
	if text == "" {
		return nil
	}

	cleaned := nonWordChars.ReplaceAllString(strings.ToLower(text), " ")

	keywords := make([]string, 0, maxKeywords)
	for _, word := range strings.Fields(cleaned) {
		if len(word) <= 2 {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		keywords = append(keywords, word)
		if len(keywords) == maxKeywords {
			break
		}
	}
	return keywords
}
