package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const signatureField = "signature"

// Canonicalize renders the signed parameter set as sorted k=v pairs joined by '&'.
// The signature itself, nulls and nested values are excluded; customer.email and
// customer.ip are re-exposed as customer_email and customer_ip.
func Canonicalize(params map[string]any) string {
	flat := make(map[string]string, len(params)+2)

	for key, value := range params {
		if key == signatureField {
			continue
		}
		if rendered, ok := renderScalar(value); ok {
			flat[key] = rendered
		}
	}

	if customer, ok := params["customer"].(map[string]any); ok {
		if email, ok := customer["email"].(string); ok && email != "" {
			flat["customer_email"] = email
		}
		if ip, ok := customer["ip"].(string); ok && ip != "" {
			flat["customer_ip"] = ip
		}
	}

	keys := make([]string, 0, len(flat))
	for key := range flat {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, key := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(flat[key])
	}
	return b.String()
}

// Sign computes the lowercase hex HMAC-SHA256 of the canonical parameter string
func Sign(params map[string]any, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(Canonicalize(params)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature matches the expected HMAC for params.
// Empty, undecodable or wrong-length signatures fail before any byte comparison.
func Verify(params map[string]any, signature, secret string) bool {
	received, err := hex.DecodeString(strings.ToLower(strings.TrimSpace(signature)))
	if err != nil || len(received) == 0 {
		return false
	}

	expected, err := hex.DecodeString(Sign(params, secret))
	if err != nil || len(expected) != len(received) {
		return false
	}

	return hmac.Equal(expected, received)
}

func renderScalar(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case json.Number:
		return v.String(), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int, int32, int64, uint, uint32, uint64:
		return fmt.Sprint(v), true
	default:
		// objects and arrays
		return "", false
	}
}
