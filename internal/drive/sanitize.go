package drive

import (
	"fmt"
	"strings"
	"unicode"
)

// maxFolderNameLength bounds sanitized names well under Drive's limit.
const maxFolderNameLength = 100

// SanitizeFolderName turns a record's display name into a safe Drive folder
// name: control characters and path separators are stripped, whitespace runs
// collapse to single spaces, and the result is length-capped. An empty
// result falls back to "record-<id>".
func SanitizeFolderName(displayName, recordID string) string {
	var b strings.Builder
	lastWasSpace := true // leading whitespace is dropped

	for _, r := range displayName {
		switch {
		case unicode.IsControl(r):
			continue
		case r == '/' || r == '\\' || r == '\'':
			continue
		case unicode.IsSpace(r):
			if !lastWasSpace {
				b.WriteRune(' ')
				lastWasSpace = true
			}
		default:
			b.WriteRune(r)
			lastWasSpace = false
		}
	}

	name := strings.TrimSpace(b.String())
	if runes := []rune(name); len(runes) > maxFolderNameLength {
		name = strings.TrimSpace(string(runes[:maxFolderNameLength]))
	}

	if name == "" {
		return fmt.Sprintf("record-%s", recordID)
	}
	return name
}
