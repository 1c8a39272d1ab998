package entity

import (
	"strconv"
	"strings"
	"time"
)

// BalanceVerification is the read-only answer to a client polling for a landed payment
type BalanceVerification struct {
	UserID             string
	CurrentBalance     int
	BalanceUpdated     bool
	ExpectedMinBalance *int64
	Transaction        *Transaction
	CheckedAt          time.Time
}

// ParseLeadingInt parses an optional sign followed by leading decimal digits,
// ignoring anything after them. Input with no leading digits is rejected.
func ParseLeadingInt(raw string) (int64, bool) {
	s := strings.TrimSpace(raw)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0, false
	}

	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
