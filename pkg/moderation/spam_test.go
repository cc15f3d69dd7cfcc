package moderation

import (
	"strings"
	"testing"
)

func Test_isTooShort(t *testing.T) {
	tests := []struct {
		length int
		want   bool
	}{
		{0, true},
		{2, true},
		{MinTextLength - 1, true},
		{MinTextLength, false},
		{500, false},
	}

	for _, tt := range tests {
		if got := isTooShort(tt.length); got != tt.want {
			t.Errorf("isTooShort(%d) = %v; want %v", tt.length, got, tt.want)
		}
	}
}

func Test_isRepetitive(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"Plain text", "un libro muy bueno", false},
		{"Five identical characters", "muuuuuy bueno", false},
		{"Six identical characters", "muuuuuuy bueno", true},
		{"Six exclamation marks", "genial!!!!!!", true},
		{"Six spaces", "genial      libro", true},
		{"Run broken by newline", "!!!\n!!!", false},
		{"Token five times", "genial genial genial genial genial", false},
		{"Token six times", "genial genial genial genial genial genial", true},
		{"Short token many times", "muy muy muy muy muy muy muy", false},
		{"Four letter token six times", "bien bien bien bien bien bien", true},
		{"Punctuation makes tokens differ", "genial genial, genial. genial genial genial!", false},
		{"Multibyte run", "ñññññña", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := isRepetitive(strings.ToLower(tt.text))
			if got != tt.want {
				t.Errorf("isRepetitive(%q) = %v; want %v", tt.text, got, tt.want)
			}
		})
	}
}

func Test_hasSuspiciousLinks(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"No links", "sin enlaces", false},
		{"One link", "mira http://a.example", false},
		{"Two links", "http://a.example y https://b.example", false},
		{"Three links", "http://a.example https://b.example www.c.example", true},
		{"Scheme without host", "http:// https:// www.", false},
		{"Glued links count once", "http://a.examplehttp://b.example http://c.example", false},
		{"Many links", strings.Repeat("www.spam.example ", 10), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := hasSuspiciousLinks(tt.text)
			if got != tt.want {
				t.Errorf("hasSuspiciousLinks(%q) = %v; want %v", tt.text, got, tt.want)
			}
		})
	}
}
