// Package tokenizer normalises free text into terms for lexical scoring.
// Text is lower-cased and split on non-alphanumeric boundaries. Stop words
// are dropped and the remaining words are stemmed.
package tokenizer

import (
	"strings"
	"unicode"
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "has": {}, "he": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {},
	"or": {}, "that": {}, "the": {}, "to": {}, "was": {}, "were": {},
	"will": {}, "with": {}, "this": {}, "but": {}, "they": {},
	"have": {}, "had": {}, "what": {}, "when": {}, "where": {},
	"who": {}, "which": {}, "their": {}, "if": {}, "each": {},
	"do": {}, "not": {}, "no": {}, "so": {}, "can": {},
	"i": {}, "me": {}, "my": {}, "we": {}, "our": {}, "you": {},
	"your": {}, "she": {}, "her": {}, "his": {}, "him": {}, "them": {},
	"been": {}, "being": {}, "am": {}, "did": {}, "does": {}, "into": {},
	"than": {}, "then": {}, "there": {}, "these": {}, "those": {},
	"about": {}, "over": {}, "also": {}, "more": {}, "most": {}, "such": {},
	"other": {}, "some": {}, "any": {}, "all": {}, "both": {}, "very": {},
	"just": {}, "should": {}, "would": {}, "could": {}, "may": {}, "must": {},
	"etc": {}, "per": {}, "via": {}, "using": {}, "used": {},
}

// IsStopWord reports whether the lower-cased word carries no content.
func IsStopWord(word string) bool {
	_, ok := stopWords[word]
	return ok
}

// Terms breaks text into stemmed, lowercased terms with stop-words removed.
// Terms keep their order of appearance and may repeat.
func Terms(text string) []string {
	text = strings.ToLower(text)
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	terms := make([]string, 0, len(words)/2)
	for _, word := range words {
		if len(word) < 2 {
			continue
		}
		if IsStopWord(word) {
			continue
		}
		stemmed := Stem(word)
		if stemmed == "" {
			continue
		}
		terms = append(terms, stemmed)
	}
	return terms
}

// Frequencies counts the terms of text.
func Frequencies(text string) map[string]int {
	freq := make(map[string]int)
	for _, t := range Terms(text) {
		freq[t]++
	}
	return freq
}

// Stem folds inflected forms of a word onto one term: plurals, -ing and -ed
// verb forms, -ly adverbs, -ment and -ation nouns, and a trailing silent e.
// It never strips -er, so tool names such as "docker" and role nouns such as
// "developer" keep their form. Words ending in -ss, -us and -is ("express",
// "status", "redis") are left as they are.
func Stem(word string) string {
	word = stripPlural(word)

	switch {
	case trimSuffix(&word, "ation", "ate", 3):
	case trimSuffix(&word, "ment", "", 4):
	case trimSuffix(&word, "ing", "", 3), trimSuffix(&word, "ed", "", 3):
		word = undouble(word)
	case trimSuffix(&word, "ly", "", 4):
	}

	if len(word) >= 4 && word[len(word)-1] == 'e' && word[len(word)-2] != 'e' {
		word = word[:len(word)-1]
	}
	return word
}

func stripPlural(word string) string {
	switch {
	case strings.HasSuffix(word, "ss"), strings.HasSuffix(word, "us"), strings.HasSuffix(word, "is"):
		return word
	case trimSuffix(&word, "ies", "y", 3):
		return word
	case strings.HasSuffix(word, "sses"):
		return word[:len(word)-2]
	}
	for _, sibilant := range []string{"xes", "ches", "shes", "zes"} {
		if strings.HasSuffix(word, sibilant) && len(word)-2 >= 3 {
			return word[:len(word)-2]
		}
	}
	trimSuffix(&word, "s", "", 3)
	return word
}

// trimSuffix replaces suffix when at least minStem bytes remain before it.
func trimSuffix(word *string, suffix, replacement string, minStem int) bool {
	if !strings.HasSuffix(*word, suffix) || len(*word)-len(suffix) < minStem {
		return false
	}
	*word = (*word)[:len(*word)-len(suffix)] + replacement
	return true
}

// undouble turns "runn" into "run" after a verb ending was removed. Doubled
// l, s and z are kept ("install", "express", "buzz").
func undouble(word string) string {
	n := len(word)
	if n < 4 {
		return word
	}
	last := word[n-1]
	if last == word[n-2] && last >= 'a' && last <= 'z' && !strings.ContainsRune("aeioulsz", rune(last)) {
		return word[:n-1]
	}
	return word
}
