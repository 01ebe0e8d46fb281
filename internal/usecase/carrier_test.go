//go:build !integration

package usecase_test

import (
	"testing"

	"jobboard-billing/internal/domain"
	"jobboard-billing/internal/usecase"
)

func TestResolveGateway(t *testing.T) {
	cases := []struct {
		name  string
		phone string
		want  string
	}{
		{"67x is MTN", "677123456", usecase.GatewayMTN},
		{"69x is Orange", "690123456", usecase.GatewayOrange},
		{"650 is MTN", "650123456", usecase.GatewayMTN},
		{"654 is MTN", "654999999", usecase.GatewayMTN},
		{"655 is Orange", "655123456", usecase.GatewayOrange},
		{"659 is Orange", "659000000", usecase.GatewayOrange},
		{"680 is MTN", "680123456", usecase.GatewayMTN},
		{"685 is Orange", "685123456", usecase.GatewayOrange},
		{"plus country code stripped", "+237 677 12 34 56", usecase.GatewayMTN},
		{"bare country code stripped", "237690123456", usecase.GatewayOrange},
		{"double-zero prefix stripped", "00237655123456", usecase.GatewayOrange},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := usecase.ResolveGateway(tc.phone, "")
			if err != nil {
				t.Fatalf("expected no error, got: %v", err)
			}
			if got != tc.want {
				t.Errorf("phone %s: expected %s, got %s", tc.phone, tc.want, got)
			}
		})
	}

	t.Run("unknown prefix uses the fallback shortcode", func(t *testing.T) {
		got, err := usecase.ResolveGateway("622123456", "CM_FALLBACK")
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if got != "CM_FALLBACK" {
			t.Errorf("expected fallback, got %s", got)
		}
	})

	t.Run("unknown prefix without fallback is a validation error", func(t *testing.T) {
		_, err := usecase.ResolveGateway("622123456", "")
		if err == nil || !domain.IsValidation(err) {
			t.Errorf("expected validation error, got: %v", err)
		}
	})
}
