// Package email holds the normalization and validation rules applied to
// stored email addresses. Both the batch reconciliation pass and the admin
// endpoints use it, so the two entry points cannot drift apart.
package email

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf16"
)

// MaxLength is the column width of every email column, in UTF-16 code units.
const MaxLength = 255

const (
	IssueInvalidString = "invalid_string"
	IssueTooBig        = "too_big"
)

// Issue describes one violated constraint. Issues are produced for reporting
// only; IsStrictlyValid is the pass/fail contract.
type Issue struct {
	Code       string `json:"code"`
	Validation string `json:"validation,omitempty"`
	Maximum    int    `json:"maximum,omitempty"`
	Message    string `json:"message"`
}

// spaceRunes are the runes isSpace accepts, in character-class syntax.
const spaceRunes = `\t\n\v\f\r\x{85}\p{Z}\x{FEFF}`

const (
	whitespace = `[` + spaceRunes + `]`
	nonSpaceAt = `[^@` + spaceRunes + `]+`
)

var (
	whitespaceRunRe = regexp.MustCompile(whitespace + `+`)
	aroundAtRe      = regexp.MustCompile(whitespace + `*@` + whitespace + `*`)

	strictRe = regexp.MustCompile(`^[A-Za-z0-9_'+\-.]*[A-Za-z0-9_+\-]@(?:[A-Za-z0-9][A-Za-z0-9\-]*\.)+[A-Za-z]{2,}$`)
	looseRe  = regexp.MustCompile(`^` + nonSpaceAt + `@` + nonSpaceAt + `\.` + nonSpaceAt + `$`)
)

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}

// Normalize trims, lowercases, collapses whitespace runs to one space and
// drops whitespace around the @ separator. It never fails.
func Normalize(raw string) string {
	s := strings.TrimFunc(raw, isSpace)
	s = strings.ToLower(s)
	s = whitespaceRunRe.ReplaceAllString(s, " ")
	return aroundAtRe.ReplaceAllString(s, "@")
}

// Length counts UTF-16 code units, the unit the column limit is expressed in.
func Length(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// Validate returns every strict-grammar violation of s. A nil result means s
// may be written.
func Validate(s string) []Issue {
	var issues []Issue
	if !matchesStrictGrammar(s) {
		issues = append(issues, Issue{
			Code:       IssueInvalidString,
			Validation: "email",
			Message:    "invalid email format",
		})
	}
	if Length(s) > MaxLength {
		issues = append(issues, Issue{
			Code:    IssueTooBig,
			Maximum: MaxLength,
			Message: "email must be at most 255 characters",
		})
	}
	return issues
}

// IsStrictlyValid gates every write.
func IsStrictlyValid(s string) bool {
	return matchesStrictGrammar(s) && Length(s) <= MaxLength
}

// IsLooselyValid accepts legacy addresses for reporting. It must never gate a write.
func IsLooselyValid(s string) bool {
	if Length(s) > MaxLength {
		return false
	}
	trimmed := strings.TrimFunc(s, isSpace)
	if trimmed == "" {
		return false
	}
	return looseRe.MatchString(strings.ToLower(trimmed))
}

func matchesStrictGrammar(s string) bool {
	local, _, ok := strings.Cut(s, "@")
	if !ok || strings.HasPrefix(local, ".") || strings.Contains(s, "..") {
		return false
	}
	return strictRe.MatchString(s)
}

// IsBlank reports whether s is empty after trimming whitespace.
func IsBlank(s string) bool {
	return strings.TrimFunc(s, isSpace) == ""
}
