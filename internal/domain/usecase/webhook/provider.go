package webhook

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/nerbixa/payment-reconciler/internal/domain/entity"
)

// Envelope is what a provider adapter extracts from a decoded delivery
type Envelope struct {
	Notification    entity.PaymentNotification
	SignatureParams map[string]any // Parameter set the gateway signed
	Signature       string         // Submitted signature, empty when absent
}

// Provider adapts one gateway's payload shape and signature placement
type Provider interface {
	// Name is the machine name used in log event prefixes and routes
	Name() string
	// DisplayName is shown by the liveness probe
	DisplayName() string
	// Parse locates the transaction fields and the signature.
	// A structurally unusable body returns an error wrapping ErrInvalidPayload.
	Parse(body map[string]any, signatureHeader string) (*Envelope, error)
}

// ProviderSettings holds the per-deployment secret and test-mode policy
type ProviderSettings struct {
	Secret            string
	AllowUnsignedTest bool
}

func objectField(m map[string]any, key string) (map[string]any, bool) {
	if m == nil {
		return nil, false
	}
	obj, ok := m[key].(map[string]any)
	return obj, ok
}

// stringField returns a scalar field as a string; numbers keep their JSON spelling
func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	switch v := m[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func isTestFlag(m map[string]any) bool {
	test, ok := m["test"].(bool)
	return ok && test
}

func customerEmail(m map[string]any) string {
	customer, _ := objectField(m, "customer")
	return stringField(customer, "email")
}
