package cryptox

import (
	"strings"
	"unicode"
)

// Password length bounds. Below the minimum we don't even bother scoring.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 128

	// strongScore is the minimum score a password needs to be considered
	// strong. Four means all character classes with nothing held against it,
	// or three classes plus a length bonus.
	strongScore = 4
)

// commonPasswords are fragments that show up in every breach corpus. A match
// costs two points - these are the first guesses any cracker makes.
var commonPasswords = []string{
	"password", "passwort", "qwerty", "letmein", "welcome",
	"iloveyou", "monkey", "dragon", "football", "baseball",
	"sunshine", "princess", "trustno1", "superman", "123456",
	"654321", "abc123", "admin123", "changeme",
}

// ScoreResult is the outcome of scoring a password.
type ScoreResult struct {
	// Strong is true when the score clears the threshold and nothing is
	// left on the suggestions list.
	Strong bool

	// Score is the awarded point total, floored at zero.
	Score int

	// Suggestions lists what the password is missing or doing wrong.
	// Non-empty suggestions always mean not strong.
	Suggestions []string
}

// Score rates password strength. One point per satisfied character class,
// bonus points at 12 and 16 characters, penalties for common-password
// fragments and lazy keyboard runs.
func Score(password string) ScoreResult {
	length := len([]rune(password))

	if length < MinPasswordLength {
		return ScoreResult{
			Suggestions: []string{"use at least 8 characters"},
		}
	}
	if length > MaxPasswordLength {
		return ScoreResult{
			Suggestions: []string{"use at most 128 characters"},
		}
	}

	score := 0
	var suggestions []string

	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case !unicode.IsSpace(r):
			hasSymbol = true
		}
	}

	for _, class := range []struct {
		ok   bool
		hint string
	}{
		{hasLower, "add a lowercase letter"},
		{hasUpper, "add an uppercase letter"},
		{hasDigit, "add a digit"},
		{hasSymbol, "add a symbol"},
	} {
		if class.ok {
			score++
		} else {
			suggestions = append(suggestions, class.hint)
		}
	}

	if length >= 12 {
		score++
	}
	if length >= 16 {
		score++
	}

	lower := strings.ToLower(password)
	for _, common := range commonPasswords {
		if strings.Contains(lower, common) {
			score -= 2
			suggestions = append(suggestions, "avoid common password patterns")
			break
		}
	}

	if hasRepeatRun(password) || hasSequentialRun(lower) {
		score--
		suggestions = append(suggestions, "avoid repeated or sequential characters")
	}

	if score < 0 {
		score = 0
	}

	return ScoreResult{
		Strong:      score >= strongScore && len(suggestions) == 0,
		Score:       score,
		Suggestions: suggestions,
	}
}

// hasRepeatRun reports four or more identical characters in a row ("aaaa").
func hasRepeatRun(s string) bool {
	runes := []rune(s)
	run := 1
	for i := 1; i < len(runes); i++ {
		if runes[i] == runes[i-1] {
			run++
			if run >= 4 {
				return true
			}
		} else {
			run = 1
		}
	}
	return false
}

// hasSequentialRun reports five or more consecutive ascending or descending
// characters ("abcde", "54321"). Short runs like "abcd" or "123" are fine;
// plenty of decent passwords contain those.
func hasSequentialRun(s string) bool {
	runes := []rune(s)
	asc, desc := 1, 1
	for i := 1; i < len(runes); i++ {
		if runes[i] == runes[i-1]+1 {
			asc++
			desc = 1
		} else if runes[i] == runes[i-1]-1 {
			desc++
			asc = 1
		} else {
			asc, desc = 1, 1
		}
		if asc >= 5 || desc >= 5 {
			return true
		}
	}
	return false
}
