package slangs

import (
	"fmt"
	"strings"
)

// BuildPrompt formats vocabulary entries into the instruction block appended
// to language-generation prompts. Returns an empty string when there are no
// entries.
func BuildPrompt(entries []Entry) string {
	if len(entries) == 0 {
		return ""
	}

	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = fmt.Sprintf("- %q = %s", e.Slang, e.Meaning)
	}

	return "\n\nCustom slangs (ALWAYS use these interpretations):\n" + strings.Join(lines, "\n")
}
