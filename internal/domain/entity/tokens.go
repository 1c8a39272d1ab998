package entity

import (
	"regexp"
	"strconv"
)

var tokenCountPattern = regexp.MustCompile(`(?i)\((\d+)\s*tokens?\)`)

// ExtractTokens pulls the purchased token count out of a payment description
// such as "Token Top-up (100 Tokens)". Zero and unparsable counts are rejected.
func ExtractTokens(description string) (int, bool) {
	match := tokenCountPattern.FindStringSubmatch(description)
	if match == nil {
		return 0, false
	}

	tokens, err := strconv.Atoi(match[1])
	if err != nil || tokens <= 0 {
		return 0, false
	}
	return tokens, true
}
