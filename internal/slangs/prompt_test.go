package slangs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildPrompt_Empty(t *testing.T) {
	require.Equal(t, "", BuildPrompt(nil))
	require.Equal(t, "", BuildPrompt([]Entry{}))
}

func TestBuildPrompt_FormatsEntries(t *testing.T) {
	prompt := BuildPrompt([]Entry{
		{Slang: "lgtm", Meaning: "looks good to me"},
		{Slang: "eod", Meaning: "end of day"},
	})

	require.Equal(t, "\n\nCustom slangs (ALWAYS use these interpretations):\n"+
		`- "lgtm" = looks good to me`+"\n"+
		`- "eod" = end of day`, prompt)
}
