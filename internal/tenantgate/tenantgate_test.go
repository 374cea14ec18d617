package tenantgate_test

import (
	"testing"

	"github.com/cyphera-core/billing-core/internal/apperr"
	"github.com/cyphera-core/billing-core/internal/tenantgate"
	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	t.Run("missing requested app_id is validation", func(t *testing.T) {
		_, err := tenantgate.Resolve("", tenantgate.AuthContext{HasAuth: true, AuthorizedAppID: "acme"})
		assert.True(t, apperr.OfKind(err, apperr.KindValidation))
	})

	t.Run("missing auth context is unauthorized", func(t *testing.T) {
		_, err := tenantgate.Resolve("acme", tenantgate.AuthContext{})
		assert.True(t, apperr.OfKind(err, apperr.KindUnauthorized))
	})

	t.Run("mismatched authorized app_id is forbidden", func(t *testing.T) {
		_, err := tenantgate.Resolve("acme", tenantgate.AuthContext{HasAuth: true, AuthorizedAppID: "other"})
		assert.True(t, apperr.OfKind(err, apperr.KindForbidden))
	})

	t.Run("matching app_id resolves", func(t *testing.T) {
		appID, err := tenantgate.Resolve("acme", tenantgate.AuthContext{HasAuth: true, AuthorizedAppID: "acme"})
		assert.NoError(t, err)
		assert.Equal(t, "acme", appID)
	})
}

func TestScanForPCIFields(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"clean body", `{"amount_cents": 100}`, false},
		{"card number", `{"card_number": "4242"}`, true},
		{"cvv", `{"cvv": "123"}`, true},
		{"cvc camel", `{"CVC": "123"}`, true},
		{"routing number nested", `{"bank": {"routing_number": "x"}}`, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tenantgate.ScanForPCIFields([]byte(tc.body))
			if tc.wantErr {
				assert.True(t, apperr.OfKind(err, apperr.KindValidation))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
