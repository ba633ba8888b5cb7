package auth

import (
	_ "embed"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation"
)

const (
	MinPasswordLength      = 8
	maxSimilarity          = 0.7
	msgPasswordRequired    = "This field is required."
	msgPasswordTooShort    = "This password is too short. It must contain at least 8 characters."
	msgPasswordTooCommon   = "This password is too common."
	msgPasswordNumeric     = "This password is entirely numeric."
	msgPasswordTooSimilar  = "The password is too similar to the email."
)

//go:embed common-passwords.txt
var commonPasswordsRaw string

var commonPasswords = func() map[string]struct{} {
	m := make(map[string]struct{})
	for _, line := range strings.Split(commonPasswordsRaw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			m[strings.ToLower(line)] = struct{}{}
		}
	}
	return m
}()

var nonWord = regexp.MustCompile(`\W+`)

// PasswordRules returns the strength rules for a password belonging to
// email. An empty email skips the similarity rule.
func PasswordRules(email string) []validation.Rule {
	rules := []validation.Rule{
		validation.Required.Error(msgPasswordRequired),
		validation.RuneLength(MinPasswordLength, 0).Error(msgPasswordTooShort),
		validation.NewStringRule(notCommon, msgPasswordTooCommon),
		validation.NewStringRule(notNumeric, msgPasswordNumeric),
	}
	if email != "" {
		rules = append(rules, validation.NewStringRule(func(pw string) bool {
			return !tooSimilar(pw, email)
		}, msgPasswordTooSimilar))
	}
	return rules
}

// ValidatePassword runs every rule and collects all failure messages, so a
// client sees each problem at once. It returns nil for a strong password.
func ValidatePassword(password, email string) []string {
	rules := PasswordRules(email)
	if err := validation.Validate(password, rules[0]); err != nil {
		return []string{err.Error()}
	}

	var msgs []string
	for _, rule := range rules[1:] {
		if err := validation.Validate(password, rule); err != nil {
			msgs = append(msgs, err.Error())
		}
	}
	return msgs
}

func notCommon(pw string) bool {
	_, found := commonPasswords[strings.ToLower(strings.TrimSpace(pw))]
	return !found
}

func notNumeric(pw string) bool {
	for _, r := range pw {
		if !unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func tooSimilar(password, email string) bool {
	password = strings.ToLower(password)
	email = strings.ToLower(email)

	parts := append(nonWord.Split(email, -1), email)
	for _, part := range parts {
		if exceedsLengthRatio(password, part) {
			continue
		}
		if quickRatio(password, part) >= maxSimilarity {
			return true
		}
	}
	return false
}

// exceedsLengthRatio skips comparisons against values so short relative to
// the password that they could never reach the similarity threshold.
func exceedsLengthRatio(password, value string) bool {
	pwLen := utf8.RuneCountInString(password)
	valueLen := utf8.RuneCountInString(value)
	bound := maxSimilarity / 2 * float64(pwLen)
	return pwLen >= 10*valueLen && float64(valueLen) < bound
}

// quickRatio is an upper bound on sequence similarity: twice the size of
// the character multiset intersection over the total length.
func quickRatio(a, b string) float64 {
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 1
	}

	avail := make(map[rune]int)
	for _, r := range b {
		avail[r]++
	}
	matches := 0
	for _, r := range a {
		if avail[r] > 0 {
			avail[r]--
			matches++
		}
	}
	return 2 * float64(matches) / float64(total)
}
