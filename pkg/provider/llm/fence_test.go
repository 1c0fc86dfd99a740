package llm_test

import (
	"testing"

	"github.com/linguaweave/linguaweave/pkg/provider/llm"
)

func TestUnfence(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]string{
		`{"a":1}`:                 `{"a":1}`,
		"  {\"a\":1}\n":           `{"a":1}`,
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n[1,2]\n```":         `[1,2]`,
		"```{\"a\":1}```":         `{"a":1}`,
		"```json\n{\"a\":1}":      "```json\n{\"a\":1}",
		"Sure! ```json\n{}\n```":  "Sure! ```json\n{}\n```",
	} {
		if got := llm.Unfence(in); got != want {
			t.Errorf("Unfence(%q) = %q, want %q", in, got, want)
		}
	}
}
