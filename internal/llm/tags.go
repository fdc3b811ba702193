package llm

import (
	"log/slog"
	"math"
	"strconv"
	"strings"
)

// Tag names a structured fact the model embeds in its reply as [NAME: value].
type Tag string

const (
	TagPriceAsk           Tag = "PRICE_ASK"
	TagPriceOffer         Tag = "PRICE_OFFER"
	TagAcceptOffer        Tag = "ACCEPT_OFFER"
	TagAcceptPrice        Tag = "ACCEPT_PRICE"
	TagItemName           Tag = "ITEM_NAME"
	TagItemDesc           Tag = "ITEM_DESC"
	TagRevealedName       Tag = "REVEALED_NAME"
	TagRevealedAge        Tag = "REVEALED_AGE"
	TagRevealedOccupation Tag = "REVEALED_OCCUPATION"
	TagPatience           Tag = "PATIENCE"
)

// rule validates one tag's value. Text tags only need a non-empty value.
type rule struct {
	numeric bool
	// float parses a leading decimal and then demands an integer; otherwise
	// the leading integer is taken and any fraction ignored.
	float    bool
	min, max int
}

var rules = map[Tag]rule{
	TagPriceAsk:           {numeric: true, min: 0, max: math.MaxInt},
	TagPriceOffer:         {numeric: true, min: 0, max: math.MaxInt},
	TagAcceptOffer:        {numeric: true, min: 0, max: math.MaxInt},
	TagAcceptPrice:        {numeric: true, min: 0, max: math.MaxInt},
	TagRevealedAge:        {numeric: true, min: 1, max: math.MaxInt},
	TagPatience:           {numeric: true, float: true, min: -30, max: -5},
	TagItemName:           {},
	TagItemDesc:           {},
	TagRevealedName:       {},
	TagRevealedOccupation: {},
}

// Value is a parsed tag value. Num is set for numeric tags, Text otherwise.
type Value struct {
	Num  int
	Text string
}

// Tags maps each tag found in a reply to its validated value.
type Tags map[Tag]Value

// Int returns a numeric tag's value.
func (t Tags) Int(tag Tag) (int, bool) {
	v, ok := t[tag]
	if !ok || !rules[tag].numeric {
		return 0, false
	}
	return v.Num, true
}

// Text returns a text tag's value.
func (t Tags) Text(tag Tag) (string, bool) {
	v, ok := t[tag]
	if !ok || rules[tag].numeric {
		return "", false
	}
	return v.Text, true
}

// Has reports whether tag was present and valid.
func (t Tags) Has(tag Tag) bool {
	_, ok := t[tag]
	return ok
}

// ParseTags extracts every known tag from text. Invalid values are dropped
// rather than failing the turn. When a tag repeats, the last valid one wins.
func ParseTags(text string) Tags {
	tags := Tags{}
	for i := 0; i < len(text); {
		name, raw, end, ok := lexTag(text, i)
		if !ok {
			i++
			continue
		}
		i = end

		tag := Tag(strings.ToUpper(name))
		r, known := rules[tag]
		if !known {
			continue
		}
		if !r.numeric {
			if raw == "" {
				continue
			}
			tags[tag] = Value{Text: raw}
			continue
		}

		n, ok := r.parse(raw)
		if !ok {
			slog.Debug("dropping tag", "tag", tag, "value", raw)
			continue
		}
		tags[tag] = Value{Num: n}
	}
	return tags
}

func (r rule) parse(raw string) (int, bool) {
	cleaned := strings.Map(func(c rune) rune {
		if (c >= '0' && c <= '9') || c == '.' || c == '-' {
			return c
		}
		return -1
	}, raw)

	var n int
	if r.float {
		f, ok := leadingFloat(cleaned)
		if !ok || f != math.Trunc(f) || f < float64(r.min) || f > float64(r.max) {
			return 0, false
		}
		n = int(f)
	} else {
		var ok bool
		if n, ok = leadingInt(cleaned); !ok {
			return 0, false
		}
	}

	if n < r.min || n > r.max {
		return 0, false
	}
	return n, true
}

// leadingInt parses an optionally signed run of digits at the start of s.
func leadingInt(s string) (int, bool) {
	end := 0
	if end < len(s) && s[end] == '-' {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	return n, err == nil
}

// leadingFloat parses an optionally signed decimal at the start of s.
func leadingFloat(s string) (float64, bool) {
	end := 0
	if end < len(s) && s[end] == '-' {
		end++
	}
	digits := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
		digits++
	}
	if end < len(s) && s[end] == '.' {
		end++
		for end < len(s) && s[end] >= '0' && s[end] <= '9' {
			end++
			digits++
		}
	}
	if digits == 0 {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(s[:end], "."), 64)
	return f, err == nil
}

// lexTag reads a [NAME: value] token starting at s[i]. NAME is letters and
// underscores. The value runs to the first ']' and may not span lines.
func lexTag(s string, i int) (name, value string, end int, ok bool) {
	if i >= len(s) || s[i] != '[' {
		return "", "", i, false
	}
	j := i + 1
	for j < len(s) && isNameByte(s[j]) {
		j++
	}
	if j == i+1 || j >= len(s) || s[j] != ':' {
		return "", "", i, false
	}
	name = s[i+1 : j]

	k := j + 1
	for k < len(s) && s[k] != ']' {
		if s[k] == '\n' || s[k] == '\r' {
			return "", "", i, false
		}
		k++
	}
	if k >= len(s) {
		return "", "", i, false
	}
	return name, strings.TrimSpace(s[j+1 : k]), k + 1, true
}

func isNameByte(c byte) bool {
	return c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}
