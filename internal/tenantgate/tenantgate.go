// Package tenantgate implements request admission: extraction and
// verification of app_id for every mutating request, plus the PCI payload
// scanner that rejects raw cardholder-data field names before any domain
// logic runs.
package tenantgate

import (
	"strings"

	"github.com/cyphera-core/billing-core/internal/apperr"
)

// AuthContext represents the authorization context attached to a request.
type AuthContext struct {
	// AuthorizedAppID is the app_id the caller's credentials are scoped to.
	// Empty means no authorization context was supplied at all.
	AuthorizedAppID string
	HasAuth         bool
}

// pciFieldNames are the substrings whose presence in a serialized body is an
// absolute violation, regardless of nesting or field path.
var pciFieldNames = []string{
	"card_number",
	"cvv",
	"cvc",
	"account_number",
	"routing_number",
}

// Resolve extracts and verifies the single app_id to use for a request.
//
//   - requestedAppID is the first of path/body/query app_id; the caller
//     is responsible for that precedence, Resolve only validates.
//   - auth is the authorization context, if any.
//
// Rules:
//   - auth present and mismatched requestedAppID -> Forbidden
//   - auth absent (HasAuth=false) -> Unauthorized
//   - requestedAppID empty -> Validation
//   - otherwise the verified app_id is returned and is the ONLY app_id used
//     downstream; the body-level field is never trusted again.
func Resolve(requestedAppID string, auth AuthContext) (string, error) {
	if requestedAppID == "" {
		return "", apperr.Validation("app_id is required")
	}
	if !auth.HasAuth {
		return "", apperr.Unauthorized("missing authorization context")
	}
	if auth.AuthorizedAppID != requestedAppID {
		return "", apperr.Forbidden("app_id does not match authorized tenant")
	}
	return requestedAppID, nil
}

// ScanForPCIFields inspects a serialized request body (already
// lower-cased is NOT assumed; ScanForPCIFields lower-cases internally) for
// any of the rejected field-name substrings and fails closed before any
// domain logic runs.
func ScanForPCIFields(rawBody []byte) error {
	lower := strings.ToLower(string(rawBody))
	for _, field := range pciFieldNames {
		if strings.Contains(lower, field) {
			return apperr.Validation("PCI violation")
		}
	}
	return nil
}
