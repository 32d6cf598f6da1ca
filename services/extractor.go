package services

import (
	"regexp"

	"stopfrisk/models"
)

// tokenRegexp alternatives, tried left to right at each position:
//
//	\d+\.\d+                      a decimal, first so 1234.5 is not read as a year
//	\b\d{4}\b                     a four digit year
//	(\d+)\s+percent\b             an integer followed by the word "percent"; only the digits are kept
//	\d{1,3}(?:,\d{3})+(?:\.\d+)?  a thousands-grouped count such as 685,724
var tokenRegexp = regexp.MustCompile(`\d+\.\d+|\b\d{4}\b|(\d+)\s+percent\b|\d{1,3}(?:,\d{3})+(?:\.\d+)?`)

// ExtractTokens returns the numeric tokens of a fragment in order of appearance.
func ExtractTokens(f models.RawFragment) models.TokenSet {
	matches := tokenRegexp.FindAllStringSubmatchIndex(f.Text, -1)
	tokens := make([]string, 0, len(matches))
	for _, m := range matches {
		// m[2:4] is the percent group; when it matched, drop the word.
		if m[2] >= 0 {
			tokens = append(tokens, f.Text[m[2]:m[3]])
			continue
		}
		tokens = append(tokens, f.Text[m[0]:m[1]])
	}
	return models.TokenSet{Fragment: f, Tokens: tokens}
}

// ExtractAll runs ExtractTokens over every fragment.
func ExtractAll(fragments []models.RawFragment) []models.TokenSet {
	out := make([]models.TokenSet, len(fragments))
	for i, f := range fragments {
		out[i] = ExtractTokens(f)
	}
	return out
}
