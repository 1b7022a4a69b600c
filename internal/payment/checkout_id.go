package payment

import (
	"errors"
	"strings"
)

var ErrMissingCheckoutID = errors.New("checkout id missing")

// NormalizeCheckoutID strips the transaction metadata the gateway appends to
// the checkout id on redirect ("<id>.<suffix>"). Stringified absence from a
// browser ("null", "undefined") counts as missing.
func NormalizeCheckoutID(raw string) (string, error) {
	if raw == "" || raw == "null" || raw == "undefined" {
		return "", ErrMissingCheckoutID
	}

	id, _, _ := strings.Cut(raw, ".")
	if id == "" {
		return "", ErrMissingCheckoutID
	}
	return id, nil
}
