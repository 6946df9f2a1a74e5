// Package moderation censors forbidden words in message content before
// persistence, tolerant to leet spellings and separator tricks.
package moderation

import (
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

// Censor holds the Aho-Corasick automaton built from the normalized
// wordlists. Safe for concurrent use once built.
type Censor struct {
	machine *goahocorasick.Machine
	mask    rune
}

// mapping links the normalized text back to rune positions in the
// original, so masking preserves the original spacing and punctuation.
type mapping struct {
	normalized []rune
	origIdx    []int
}

func NewCensor(words []string, mask rune) (*Censor, error) {
	patterns := make([][]rune, 0, len(words))
	for _, word := range words {
		normalized := normalize([]rune(word)).normalized
		// Entries made of separators only would match everything.
		if len(normalized) == 0 {
			continue
		}
		patterns = append(patterns, normalized)
	}

	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return nil, err
	}
	return &Censor{machine: machine, mask: mask}, nil
}

// Apply replaces every character of a matched word with the mask rune.
// Unmatched content is returned untouched.
func (c *Censor) Apply(original string) string {
	m := normalize([]rune(original))
	if len(m.normalized) == 0 {
		return original
	}

	spans := c.machine.MultiPatternSearch(m.normalized, false)
	if len(spans) == 0 {
		return original
	}

	origRunes := []rune(original)
	for _, span := range spans {
		start := span.Pos
		end := start + len(span.Word)
		if start < 0 || end > len(m.origIdx) {
			continue
		}
		for i := m.origIdx[start]; i <= m.origIdx[end-1]; i++ {
			origRunes[i] = c.mask
		}
	}
	return string(origRunes)
}

// normalize lowercases, folds leet substitutions and drops separator
// runes while remembering where each kept rune came from.
func normalize(input []rune) mapping {
	m := mapping{
		normalized: make([]rune, 0, len(input)),
		origIdx:    make([]int, 0, len(input)),
	}
	for i, r := range input {
		folded := foldLeet(r)
		if isSeparator(folded) {
			continue
		}
		m.normalized = append(m.normalized, unicode.ToLower(folded))
		m.origIdx = append(m.origIdx, i)
	}
	return m
}

// foldLeet maps common leet speak characters back to their alphabet
// counterparts.
func foldLeet(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3', '€':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}

func isSeparator(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}
