package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanDialogue(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "descriptive tags keep their value",
			in:   "Behold, the [ITEM_NAME: Brass Astrolabe]. [ITEM_DESC: It gleams, mostly.]",
			want: "Behold, the Brass Astrolabe. It gleams, mostly.",
		},
		{
			name: "price tags render as dollars",
			in:   "I want [PRICE_ASK: 150] for it.",
			want: "I want $150 for it.",
		},
		{
			name: "acceptance tags render as dollars",
			in:   "Fine. [accept_offer: 080]",
			want: "Fine. $80",
		},
		{
			name: "malformed price removed",
			in:   "How about [PRICE_OFFER: a lot]?",
			want: "How about ?",
		},
		{
			name: "patience and age removed",
			in:   "That's insulting! [PATIENCE: -15] I'm [REVEALED_AGE: 60] and tired.",
			want: "That's insulting! I'm and tired.",
		},
		{
			name: "unknown tags removed",
			in:   "Hmm. [MOOD: wary] Go on.",
			want: "Hmm. Go on.",
		},
		{
			name: "bold markers removed",
			in:   "It is **priceless**.",
			want: "It is priceless.",
		},
		{
			name: "single newline kept",
			in:   "Line one\nLine two  ",
			want: "Line one\nLine two",
		},
		{
			name: "empty",
			in:   "",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanDialogue(tt.in))
		})
	}
}
