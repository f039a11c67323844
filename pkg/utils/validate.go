package utils

import (
	"regexp"
	"unicode/utf8"
)

// Accepted report target formats: @username, t.me links, private invite
// links, or a bare numeric ID.
var targetPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^@\w{5,32}$`),
	regexp.MustCompile(`^https?://t\.me/[\w+]+/?$`),
	regexp.MustCompile(`^https?://t\.me/\+\w+$`),
	regexp.MustCompile(`^\d+$`),
}

// ValidateTarget reports whether target is a valid report target.
func ValidateTarget(target string) bool {
	if target == "" {
		return false
	}
	for _, p := range targetPatterns {
		if p.MatchString(target) {
			return true
		}
	}
	return false
}

// ValidateAccountName bounds account display names to 3-50 runes.
func ValidateAccountName(name string) bool {
	n := utf8.RuneCountInString(name)
	return n >= 3 && n <= 50
}

var phonePattern = regexp.MustCompile(`^\+\d{10,15}$`)

// ValidatePhone checks international phone number format (+ and 10-15 digits).
func ValidatePhone(phone string) bool {
	return phonePattern.MatchString(phone)
}
