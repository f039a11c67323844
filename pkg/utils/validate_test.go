package utils

import "testing"

func TestValidateTarget(t *testing.T) {
	tests := []struct {
		target string
		want   bool
	}{
		{"@spammer123", true},
		{"@abcde", true},
		{"@with_underscores", true},
		{"https://t.me/somechannel", true},
		{"http://t.me/somechannel", true},
		{"https://t.me/somechannel/", true},
		{"https://t.me/+AbCd1234efGH", true},
		{"123456789", true},

		{"", false},
		{"@abcd", false}, // below 5-char minimum
		{"@name with spaces", false},
		{"spammer123", false},
		{"ftp://t.me/somechannel", false},
		{"https://telegram.org/somechannel", false},
		{"https://t.me/", false},
		{"12345abc", false},
		{"@" + string(make([]byte, 40)), false},
	}
	for _, tt := range tests {
		if got := ValidateTarget(tt.target); got != tt.want {
			t.Errorf("ValidateTarget(%q) = %v, want %v", tt.target, got, tt.want)
		}
	}
}

func TestValidateAccountName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"Main", true},
		{"abc", true},
		{"日本語の名前", true},
		{"ab", false},
		{"", false},
		{string(make([]rune, 51)), false},
	}
	for _, tt := range tests {
		if got := ValidateAccountName(tt.name); got != tt.want {
			t.Errorf("ValidateAccountName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestValidatePhone(t *testing.T) {
	tests := []struct {
		phone string
		want  bool
	}{
		{"+14155550123", true},
		{"+911234567890", true},
		{"14155550123", false},
		{"+1415", false},
		{"+1415555012345678", false},
		{"+1415555O123", false},
	}
	for _, tt := range tests {
		if got := ValidatePhone(tt.phone); got != tt.want {
			t.Errorf("ValidatePhone(%q) = %v, want %v", tt.phone, got, tt.want)
		}
	}
}
