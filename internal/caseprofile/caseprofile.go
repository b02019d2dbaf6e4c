// Package caseprofile turns a free-text case narrative into the facts and
// risk flags that drive question generation.
package caseprofile

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"slices"
	"strings"

	"github.com/abhisek/casequiz/internal/quiz"
)

// MaxSummaryRunes bounds the summary kept from a narrative.
const MaxSummaryRunes = 2000

// vocabulary maps each risk flag to the terms that raise it. Short
// abbreviations are word-bounded so "bak" does not match "tobacco".
var vocabulary = []struct {
	flag    string
	pattern *regexp.Regexp
	hint    string
}{
	{
		flag:    quiz.FlagAlcohol,
		pattern: regexp.MustCompile(`(?i)alcohol|alkohol|promille|\bbak\b|\bbac\b|drunk|\bdui\b|trunkenheit`),
		hint:    "Alcohol history: expect questions on drinking patterns, control strategies and the change in attitude since the offence.",
	},
	{
		flag:    quiz.FlagCannabis,
		pattern: regexp.MustCompile(`(?i)cannabis|\bthc\b|marihuana|marijuana|\bweed\b|\bjoint|kiffen`),
		hint:    "Cannabis history: expect questions on consumption frequency, separating use from driving and proof of abstinence.",
	},
	{
		flag:    quiz.FlagDrugs,
		pattern: regexp.MustCompile(`(?i)cocaine|kokain|amphetamin|\bmdma\b|ecstasy|opiat|opiate|heroin`),
		hint:    "Drug history: expect questions on abstinence, relapse prevention and the support used to stop.",
	},
	{
		flag:    quiz.FlagPoints,
		pattern: regexp.MustCompile(`(?i)\bpoints?\b|\bpunkte?\b|flensburg|fahreignungsregister|registry|\bfaer\b`),
		hint:    "Traffic-point history: expect questions on the individual violations, rule compliance and risk awareness.",
	},
}

// Normalize digests raw case text. It never fails: empty input yields an
// empty summary and no flags.
func Normalize(rawText string) (quiz.Facts, []string) {
	collapsed := Collapse(rawText)

	summary := collapsed
	truncated := false
	if runes := []rune(collapsed); len(runes) > MaxSummaryRunes {
		summary = string(runes[:MaxSummaryRunes])
		truncated = true
	}

	flags := detectFlags(collapsed)

	hints := make([]string, 0, len(flags))
	for _, f := range flags {
		hints = append(hints, hintFor(f))
	}

	return quiz.Facts{
		Summary:     summary,
		Hints:       hints,
		SourceChars: len([]rune(collapsed)),
		Truncated:   truncated,
	}, flags
}

// SourceHash is the content address of a narrative. Texts that differ only
// in whitespace share a hash.
func SourceHash(rawText string) string {
	sum := sha256.Sum256([]byte(Collapse(rawText)))
	return hex.EncodeToString(sum[:])
}

// Collapse trims rawText and folds every whitespace run into one space.
func Collapse(rawText string) string {
	return strings.Join(strings.Fields(rawText), " ")
}

// detectFlags scans the full text, not just the summary, so a mention late
// in a long narrative still raises its flag.
func detectFlags(text string) []string {
	var flags []string
	for _, v := range vocabulary {
		if v.pattern.MatchString(text) {
			flags = append(flags, v.flag)
		}
	}
	slices.Sort(flags)
	return slices.Compact(flags)
}

func hintFor(flag string) string {
	for _, v := range vocabulary {
		if v.flag == flag {
			return v.hint
		}
	}
	return ""
}
