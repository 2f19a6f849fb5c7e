package connector

import (
	"regexp"
	"strings"
)

// Noise filtering for business communication. Texts matching a signal
// pattern always pass; otherwise one noise hit (or a very short text) is
// enough to drop it.

var noisePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)lunch`),
	regexp.MustCompile(`(?i)dinner`),
	regexp.MustCompile(`(?i)happy hour`),
	regexp.MustCompile(`(?i)coffee`),
	regexp.MustCompile(`(?i)gym`),
	regexp.MustCompile(`(?i)out of office`),
	regexp.MustCompile(`(?i)automatic reply`),
	regexp.MustCompile(`(?i)newsletter`),
	regexp.MustCompile(`(?i)unsubscribe`),
	regexp.MustCompile(`(?i)football`),
	regexp.MustCompile(`(?i)basketball`),
	regexp.MustCompile(`(?i)vacation`),
	regexp.MustCompile(`(?i)happy birthday`),
	regexp.MustCompile(`(?i)congratulations`),
	regexp.MustCompile(`(?i)weekend`),
	regexp.MustCompile(`(?i)thank you`),
	regexp.MustCompile(`(?i)thanks`),
	regexp.MustCompile(`(?i)best regards`),
	regexp.MustCompile(`(?i)sincerely`),
	regexp.MustCompile(`(?i)meeting room (booked|canceled)`),
	regexp.MustCompile(`(?i)order (confirmation|delivery)`),
}

var signalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)requirement`),
	regexp.MustCompile(`(?i)must have`),
	regexp.MustCompile(`(?i)should have`),
	regexp.MustCompile(`(?i)deadline`),
	regexp.MustCompile(`(?i)milestone`),
	regexp.MustCompile(`(?i)priority`),
	regexp.MustCompile(`(?i)stakeholder`),
	regexp.MustCompile(`(?i)conflict`),
	regexp.MustCompile(`(?i)risk`),
	regexp.MustCompile(`(?i)decision`),
	regexp.MustCompile(`(?i)agreed`),
	regexp.MustCompile(`(?i)rejected`),
	regexp.MustCompile(`(?i)budget`),
	regexp.MustCompile(`(?i)scope`),
}

var (
	signatureMarker = regexp.MustCompile(`--\s*\n|Regards,|Thanks,`)
	whitespaceRun   = regexp.MustCompile(`\s+`)
)

// IsNoise reports whether the text is primarily noise and should be dropped
// before extraction.
func IsNoise(text string) bool {
	if len(strings.TrimSpace(text)) < 30 {
		return true
	}
	for _, p := range signalPatterns {
		if p.MatchString(text) {
			return false
		}
	}
	for _, p := range noisePatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// CleanText strips email signatures and collapses whitespace.
func CleanText(text string) string {
	if loc := signatureMarker.FindStringIndex(text); loc != nil {
		text = text[:loc[0]]
	}
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}
