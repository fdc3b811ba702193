package llm

import (
	"strconv"
	"strings"
	"unicode"
)

// CleanDialogue turns a raw reply into the line shown to the player:
// descriptive tags collapse to their value, price tags render as $N, and
// every other tag is removed along with markdown bold markers.
func CleanDialogue(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	for i := 0; i < len(text); {
		name, value, end, ok := lexTag(text, i)
		if !ok {
			b.WriteByte(text[i])
			i++
			continue
		}
		i = end

		switch Tag(strings.ToUpper(name)) {
		case TagItemName, TagItemDesc, TagRevealedName, TagRevealedOccupation:
			b.WriteString(value)
		case TagPriceAsk, TagPriceOffer, TagAcceptPrice, TagAcceptOffer:
			if n, ok := digitsOnly(value); ok {
				b.WriteString("$" + strconv.Itoa(n))
			}
		}
	}

	cleaned := strings.ReplaceAll(b.String(), "**", "")
	return strings.TrimSpace(condenseSpace(cleaned))
}

func digitsOnly(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}

// condenseSpace replaces each run of two or more whitespace characters with
// a single space. Lone whitespace characters are kept as they are.
func condenseSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	runes := []rune(s)
	for i := 0; i < len(runes); {
		if !unicode.IsSpace(runes[i]) {
			b.WriteRune(runes[i])
			i++
			continue
		}
		j := i
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		if j-i >= 2 {
			b.WriteByte(' ')
		} else {
			b.WriteRune(runes[i])
		}
		i = j
	}
	return b.String()
}
