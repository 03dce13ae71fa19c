package drive

import (
	"strings"
	"testing"
	"unicode"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestSanitizeFolderName(t *testing.T) {
	tests := []struct {
		name        string
		displayName string
		recordID    string
		want        string
	}{
		{
			name:        "plain name unchanged",
			displayName: "Jane Doe",
			recordID:    "42",
			want:        "Jane Doe",
		},
		{
			name:        "path separators stripped",
			displayName: "Jane/Doe\\2024",
			recordID:    "42",
			want:        "JaneDoe2024",
		},
		{
			name:        "quotes stripped",
			displayName: "O'Brien",
			recordID:    "42",
			want:        "OBrien",
		},
		{
			name:        "whitespace collapsed",
			displayName: "  Jane \t  Doe \n",
			recordID:    "42",
			want:        "Jane Doe",
		},
		{
			name:        "control characters stripped",
			displayName: "Jane\x00Doe\x07",
			recordID:    "42",
			want:        "JaneDoe",
		},
		{
			name:        "empty falls back to record id",
			displayName: "",
			recordID:    "42",
			want:        "record-42",
		},
		{
			name:        "only separators falls back to record id",
			displayName: "///\\\\",
			recordID:    "abc",
			want:        "record-abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFolderName(tt.displayName, tt.recordID); got != tt.want {
				t.Errorf("SanitizeFolderName(%q) = %q, want %q", tt.displayName, got, tt.want)
			}
		})
	}
}

func TestSanitizeFolderNameCapsLength(t *testing.T) {
	long := strings.Repeat("a", 500)
	got := SanitizeFolderName(long, "42")
	if len([]rune(got)) != maxFolderNameLength {
		t.Errorf("len = %d, want %d", len([]rune(got)), maxFolderNameLength)
	}
}

func TestSanitizeFolderNameProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("output never contains separators or control characters", prop.ForAll(
		func(s string) bool {
			got := SanitizeFolderName(s, "id")
			for _, r := range got {
				if r == '/' || r == '\\' || r == '\'' || unicode.IsControl(r) {
					return false
				}
			}
			return true
		},
		gen.AnyString(),
	))

	properties.Property("output is never empty", prop.ForAll(
		func(s string) bool {
			return SanitizeFolderName(s, "id") != ""
		},
		gen.AnyString(),
	))

	properties.Property("output never exceeds the length cap plus fallback", prop.ForAll(
		func(s string) bool {
			return len([]rune(SanitizeFolderName(s, "id"))) <= maxFolderNameLength
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
