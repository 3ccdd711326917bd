// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validate

import (
	"regexp"
	"strings"

	"github.com/pdiddy/survey-engine/pkg/types"
)

// headingPattern matches a Markdown heading line and captures its text.
var headingPattern = regexp.MustCompile(`(?m)^#{1,6}\s+(.+?)\s*$`)

// citationPattern matches inline citations: [Key] or [Key1; Key2].
var citationPattern = regexp.MustCompile(`\[([^\[\]]+)\]`)

// Draft is the parsed view of a drafted document: everything the validator
// needs and nothing else. The prose itself stays opaque.
type Draft struct {
	// WordCount is the total word count, citation markers excluded.
	WordCount int

	// SectionWords maps lowercased heading text to the section's word count.
	SectionWords map[string]int

	// CiteKeys lists the distinct citation keys used, in first-use order.
	CiteKeys []string
}

// ParseDraft extracts the validator's view from draft markdown. Sections are
// delimited by headings; a heading's text identifies the outline section it
// opens (matched case-insensitively against the section title or ID).
func ParseDraft(text string) Draft {
	d := Draft{SectionWords: make(map[string]int)}

	// Strip citation markers before counting words: keys are registry
	// entries, not prose.
	prose := citationPattern.ReplaceAllStringFunc(text, func(m string) string {
		if isCitationList(m[1 : len(m)-1]) {
			return ""
		}
		return m
	})

	// Walk heading-delimited segments.
	locs := headingPattern.FindAllStringSubmatchIndex(prose, -1)
	for i, loc := range locs {
		heading := strings.ToLower(strings.TrimSpace(prose[loc[2]:loc[3]]))
		bodyStart := loc[1]
		bodyEnd := len(prose)
		if i+1 < len(locs) {
			bodyEnd = locs[i+1][0]
		}
		d.SectionWords[heading] += len(strings.Fields(prose[bodyStart:bodyEnd]))
	}
	d.WordCount = len(strings.Fields(headingPattern.ReplaceAllString(prose, "$1")))

	// Citation keys from the original text, deduplicated case-insensitively
	// in first-use order.
	seen := make(map[string]bool)
	for _, m := range citationPattern.FindAllStringSubmatch(text, -1) {
		for _, key := range splitCitationList(m[1]) {
			lower := strings.ToLower(key)
			if !seen[lower] {
				seen[lower] = true
				d.CiteKeys = append(d.CiteKeys, key)
			}
		}
	}
	return d
}

// splitCitationList splits bracket content on semicolons and keeps only the
// parts that look like citation keys.
func splitCitationList(inner string) []string {
	var keys []string
	for _, p := range strings.Split(inner, ";") {
		key := strings.TrimSpace(p)
		if key != "" && isCitationKey(key) {
			keys = append(keys, key)
		}
	}
	return keys
}

// isCitationList reports whether every part of the bracket content is a
// citation key, so Markdown links and asides survive word counting.
func isCitationList(inner string) bool {
	parts := strings.Split(inner, ";")
	for _, p := range parts {
		if !isCitationKey(strings.TrimSpace(p)) {
			return false
		}
	}
	return len(parts) > 0
}

// isCitationKey checks whether a string looks like a citation key (AuthorYear
// format). It rejects strings that look like Markdown links, image
// references, or other bracket content.
func isCitationKey(s string) bool {
	// Citation keys are alphanumeric, possibly with hyphens.
	// They must contain at least one letter and one digit.
	hasLetter := false
	hasDigit := false
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
			hasLetter = true
		case c >= '0' && c <= '9':
			hasDigit = true
		case c == '-', c == '_':
			// allowed
		default:
			return false
		}
	}
	return hasLetter && hasDigit
}

// sectionActual returns the draft word count for an outline section, matching
// the heading against the section title first, then the section ID.
func sectionActual(d Draft, s types.OutlineSection) (int, bool) {
	if n, ok := d.SectionWords[strings.ToLower(s.Title)]; ok {
		return n, true
	}
	n, ok := d.SectionWords[strings.ToLower(s.ID)]
	return n, ok
}
