// internal/pii/pii.go
// Package pii provides irreversible masking for privacy-sensitive fields.
// Masked values keep a bounded amount of useful signal (email domain, last
// four phone digits) while the identifying portion is replaced by a one-way
// digest. Both functions are pure and deterministic so that re-running the
// pipeline over the same input yields identical records.
package pii

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// MaskEmail replaces the local part of an email address with its md5 hex
// digest and keeps the domain verbatim. Empty or @-free input is returned
// unchanged; the caller decides whether to log that as an anomaly.
func MaskEmail(email string) string {
	if email == "" || !strings.Contains(email, "@") {
		return email
	}

	local, domain, _ := strings.Cut(email, "@")
	sum := md5.Sum([]byte(local))
	return hex.EncodeToString(sum[:]) + "@" + domain
}

// MaskPhone keeps the last four characters of a phone number verbatim and
// replaces everything preceding them with a truncated md5 hex digest joined
// by a literal "****" separator. Inputs shorter than five characters are
// returned unchanged as there is nothing safe to mask.
func MaskPhone(phone string) string {
	if len(phone) < 5 {
		return phone
	}

	prefix := phone[:len(phone)-4]
	lastFour := phone[len(phone)-4:]
	sum := md5.Sum([]byte(prefix))
	return hex.EncodeToString(sum[:])[:8] + "****" + lastFour
}
