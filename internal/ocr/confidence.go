package ocr

import (
	"regexp"
	"strings"
)

var (
	reDate   = regexp.MustCompile(`\b(19|20)\d{2}\b|\b\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4}\b`)
	reEmail  = regexp.MustCompile(`\b[\w.+-]+@[\w-]+\.[a-z]{2,}\b`)
	reAmount = regexp.MustCompile(`\b\d{1,3}(,\d{3})*(\.\d{2})\b|\b\d+\.\d{2}\b`)
	reIdent  = regexp.MustCompile(`\b[A-Z]{1,3}\d{5,}\b`)
)

func hasDatePattern(s string) bool   { return reDate.MatchString(s) }
func hasEmailPattern(s string) bool  { return reEmail.MatchString(strings.ToLower(s)) }
func hasAmountPattern(s string) bool { return reAmount.MatchString(s) }
func hasIdentPattern(s string) bool  { return reIdent.MatchString(s) }

// naive heuristic confidence based on decoded text characteristics
func heuristicConfidence(txt string) float32 {
	// boost if we see artifacts common to the supported document types
	// (date-ish, amount-ish, email-ish, id-number-ish).
	score := float32(0.2) // base
	if hasDatePattern(txt) {
		score += 0.2
	}
	if hasAmountPattern(txt) {
		score += 0.15
	}
	if hasEmailPattern(txt) {
		score += 0.1
	}
	if hasIdentPattern(txt) {
		score += 0.1
	}
	if len(txt) > 120 {
		score += 0.1
	} // enough content
	if score > 1.0 {
		score = 1.0
	}
	return score
}
