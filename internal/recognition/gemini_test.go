package recognition

import (
	"strings"
	"testing"
)

func TestBuildPromptNamesEveryField(t *testing.T) {
	keys := []string{"name", "rollNumber", "verificationCode"}
	prompt := buildPrompt(keys)

	for _, key := range keys {
		if !strings.Contains(prompt, "- "+key) {
			t.Errorf("prompt missing field key %q", key)
		}
	}

	for _, want := range []string{"extractedData", "ocrText", "ocrLocations"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing response contract key %q", want)
		}
	}
}
