package infra

import (
	"fmt"
	"strings"

	"github.com/ttacon/libphonenumber"
)

// NormalizePhone parses a phone number, using region for numbers written
// without an international prefix, and returns it in E.164 form.
// Empty input is returned unchanged.
func NormalizePhone(raw, region string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	num, err := libphonenumber.Parse(raw, strings.ToUpper(region))
	if err != nil {
		return "", fmt.Errorf("numéro de téléphone invalide: %w", err)
	}
	if !libphonenumber.IsValidNumber(num) {
		return "", fmt.Errorf("numéro de téléphone invalide: %s", raw)
	}
	return libphonenumber.Format(num, libphonenumber.E164), nil
}
