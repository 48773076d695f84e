// Package detect extracts per-source evidence for a single service type:
// keyword matches, vendor flag rules, appointment recurrence and usage.
package detect

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"

	"github.com/gyeh/stclassify/internal/config"
	"github.com/gyeh/stclassify/internal/signal"
)

// KeywordDetector marks an attribute True when the description contains any
// of its keywords. A miss is Unknown, never False.
type KeywordDetector struct {
	reservice    []string
	recurring    []string
	zeroTime     []string
	hasReservice []string
}

// NewKeywordDetector case-folds the configured lists once.
func NewKeywordDetector(kw config.Keywords) *KeywordDetector {
	return &KeywordDetector{
		reservice:    foldAll(kw.Reservice),
		recurring:    foldAll(kw.Recurring),
		zeroTime:     foldAll(kw.ZeroTime),
		hasReservice: foldAll(kw.HasReservice),
	}
}

// Detect scans description. A nil description yields all Unknown.
func (d *KeywordDetector) Detect(description *string) signal.Set {
	if description == nil {
		return signal.Set{}
	}
	text := cases.Fold().String(*description)
	words := " " + strings.Map(wordRune, text) + " "
	return signal.Set{
		Reservice:     matchAny(text, words, d.reservice),
		Recurring:     matchAny(text, words, d.recurring),
		ZeroVisitTime: matchAny(text, words, d.zeroTime),
		HasReservice:  matchAny(text, words, d.hasReservice),
	}
}

// matchAny checks plain keywords against text and space-padded keywords
// against words, the text with every non-alphanumeric rune blanked.
func matchAny(text, words string, keywords []string) signal.Value {
	for _, kw := range keywords {
		target := text
		if wholeWord(kw) {
			target = words
		}
		if strings.Contains(target, kw) {
			return signal.True
		}
	}
	return signal.Unknown
}

func wholeWord(kw string) bool {
	return len(kw) > 2 && strings.HasPrefix(kw, " ") && strings.HasSuffix(kw, " ")
}

func wordRune(r rune) rune {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return r
	}
	return ' '
}

func foldAll(in []string) []string {
	c := cases.Fold()
	out := make([]string, 0, len(in))
	for _, s := range in {
		if strings.TrimSpace(s) == "" {
			continue
		}
		out = append(out, c.String(s))
	}
	return out
}
