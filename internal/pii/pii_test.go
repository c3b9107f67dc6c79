package pii

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskEmail(t *testing.T) {
	masked := MaskEmail("ab@example.com")

	require.NotEqual(t, "ab@example.com", masked)

	local, domain, found := strings.Cut(masked, "@")
	require.True(t, found)
	assert.Equal(t, "example.com", domain, "domain must be kept verbatim")
	assert.Len(t, local, 32, "local part must be a 32-hex-char digest")
	assert.Regexp(t, "^[0-9a-f]{32}$", local)
}

func TestMaskEmailDeterministic(t *testing.T) {
	a := MaskEmail("someone@example.org")
	b := MaskEmail("someone@example.org")
	assert.Equal(t, a, b)
}

func TestMaskEmailIdempotentDomain(t *testing.T) {
	// Masking an already-masked value must not corrupt the domain.
	once := MaskEmail("user@mail.example.com")
	twice := MaskEmail(once)

	_, domain, _ := strings.Cut(twice, "@")
	assert.Equal(t, "mail.example.com", domain)
}

func TestMaskEmailPassthrough(t *testing.T) {
	assert.Equal(t, "", MaskEmail(""))
	assert.Equal(t, "not-an-email", MaskEmail("not-an-email"))
}

func TestMaskPhone(t *testing.T) {
	masked := MaskPhone("15551234567")

	require.NotEqual(t, "15551234567", masked)
	assert.True(t, strings.HasSuffix(masked, "4567"), "last four digits must be kept verbatim")
	assert.Contains(t, masked, "****")

	prefix, _, found := strings.Cut(masked, "****")
	require.True(t, found)
	assert.Len(t, prefix, 8, "hashed prefix must be truncated to 8 hex chars")
}

func TestMaskPhoneDeterministic(t *testing.T) {
	assert.Equal(t, MaskPhone("15551234567"), MaskPhone("15551234567"))
}

func TestMaskPhoneShortInput(t *testing.T) {
	// Fewer than five characters: nothing safe to mask.
	for _, phone := range []string{"", "1", "123", "1234"} {
		assert.Equal(t, phone, MaskPhone(phone))
	}
}

func TestMaskPhoneFiveChars(t *testing.T) {
	masked := MaskPhone("12345")
	assert.NotEqual(t, "12345", masked)
	assert.True(t, strings.HasSuffix(masked, "2345"))
}
