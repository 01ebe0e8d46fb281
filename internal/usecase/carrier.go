// File: internal/usecase/carrier.go
package usecase

import (
	"strings"

	"jobboard-billing/internal/domain"
)

// Mobile-money gateway shortcodes understood by the payment provider.
const (
	GatewayMTN    = "CM_MTNMOMO"
	GatewayOrange = "CM_ORANGEMONEY"
)

// ResolveGateway classifies a Cameroonian MSISDN into a mobile-money
// gateway by its numeric prefix. It is pure and total over the input: an
// unrecognized prefix resolves to the configured fallback shortcode, and
// only when no fallback is configured does it fail with a ValidationError.
//
// Prefix families (disjoint):
//
//	MTN:    67x, 650-654, 680-684
//	Orange: 69x, 655-659, 685-689
func ResolveGateway(phone, fallback string) (string, error) {
	n := normalizePhone(phone)
	if len(n) >= 3 && n[0] == '6' {
		head2 := n[:2]
		third := n[2]
		switch head2 {
		case "67":
			return GatewayMTN, nil
		case "69":
			return GatewayOrange, nil
		case "65", "68":
			if third >= '0' && third <= '4' {
				return GatewayMTN, nil
			}
			if third >= '5' && third <= '9' {
				return GatewayOrange, nil
			}
		}
	}
	if fallback != "" {
		return fallback, nil
	}
	return "", domain.NewValidationError("unsupported mobile money provider for phone %s", phone)
}

// normalizePhone strips spacing, a leading "+" and the 237 country code,
// leaving the bare subscriber number.
func normalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	n := b.String()
	n = strings.TrimPrefix(n, "00237")
	if len(n) > 9 {
		n = strings.TrimPrefix(n, "237")
	}
	return n
}
