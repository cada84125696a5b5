package bypass

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"focus-guard/agent/internal/models"
)

// MinReasonLength is the minimum trimmed length of a bypass reason.
const MinReasonLength = 10

// placeholderPhrases are whole reasons that carry no justification.
var placeholderPhrases = map[string]bool{
	"test test":       true,
	"testing testing": true,
	"lorem ipsum":     true,
	"no reason":       true,
	"just because":    true,
	"because i want":  true,
	"because i can":   true,
	"i want to":       true,
	"let me in":       true,
	"whatever":        true,
	"nothing":         true,
	"idk idk idk":     true,
}

// keyboardMash fragments reject a reason wherever they appear.
var keyboardMash = []string{"asdf", "qwert", "zxcv", "hjkl", "lorem ipsum"}

// ValidateReason reports why raw cannot justify a bypass, or nil when it can.
func ValidateReason(raw string) error {
	if utf8.RuneCountInString(strings.TrimSpace(raw)) < MinReasonLength {
		return reject("must be at least 10 characters")
	}
	// phrase matching ignores case and inner spacing
	s := strings.ToLower(strings.Join(strings.Fields(raw), " "))
	switch {
	case placeholderPhrases[s]:
		return reject("placeholder text")
	case !hasLetter(s):
		return reject("must contain words")
	case containsAny(s, keyboardMash):
		return reject("keyboard mash")
	case repetitive(strings.ReplaceAll(s, " ", "")):
		return reject("repeated characters")
	case sameWord(s):
		return reject("repeated word")
	}
	return nil
}

// ReasonAcceptable is ValidateReason as a predicate for enabling the proceed action.
func ReasonAcceptable(raw string) bool { return ValidateReason(raw) == nil }

func reject(why string) error {
	return &models.ValidationError{Field: "reason", Reason: why}
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func containsAny(s string, parts []string) bool {
	for _, p := range parts {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// repetitive reports whether s is a unit of up to four runes repeated.
func repetitive(s string) bool {
	r := []rune(s)
	for n := 1; n <= 4 && 2*n <= len(r); n++ {
		periodic := true
		for i := n; i < len(r); i++ {
			if r[i] != r[i-n] {
				periodic = false
				break
			}
		}
		if periodic {
			return true
		}
	}
	return false
}

func sameWord(s string) bool {
	words := strings.Fields(s)
	if len(words) < 2 {
		return false
	}
	for _, w := range words[1:] {
		if w != words[0] {
			return false
		}
	}
	return true
}
