package caption

import (
	"regexp"
	"strings"
)

// Captioning models often read a person facing a webcam as someone looking
// in a mirror.
var mirrorFixes = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`(?i)in front of a mirror`), "facing the camera"},
	{regexp.MustCompile(`(?i)looking in(to)? a mirror`), "looking at the camera"},
	{regexp.MustCompile(`(?i)at a mirror`), "at the camera"},
	{regexp.MustCompile(`(?i)mirror`), "camera"},
}

var blocked = regexp.MustCompile(`(?i)\b(cock|penis|sex|nude|naked|explicit)\b`)

// Sanitize corrects the mirror hallucination and replaces captions with
// inappropriate content by a neutral description built from the safe words
// it contains.
func Sanitize(caption string) string {
	caption = strings.TrimSpace(caption)

	for _, f := range mirrorFixes {
		caption = f.re.ReplaceAllString(caption, f.repl)
	}

	if !blocked.MatchString(caption) {
		return caption
	}

	lower := strings.ToLower(caption)
	var safe []string
	if containsWord(lower, "man") || containsWord(lower, "person") {
		safe = append(safe, "a person")
	}
	if containsWord(lower, "room") || containsWord(lower, "bathroom") {
		safe = append(safe, "in a room")
	}
	if containsWord(lower, "shirt") {
		safe = append(safe, "wearing a shirt")
	}
	if len(safe) == 0 {
		return "A person in a room."
	}
	return strings.Join(safe, " ") + "."
}

func containsWord(s, word string) bool {
	for _, f := range strings.FieldsFunc(s, func(r rune) bool {
		return (r < 'a' || r > 'z') && r != '\''
	}) {
		if f == word {
			return true
		}
	}
	return false
}
