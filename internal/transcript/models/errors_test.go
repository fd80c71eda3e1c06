package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"transcript/pkg/domain"
	dErrors "transcript/pkg/domain-errors"
)

func TestErrorMatchesByKind(t *testing.T) {
	err := fmt.Errorf("mint: %w", IdentifierAlreadyMinted(1234, domain.PDFHash{1}))

	assert.ErrorIs(t, err, ErrIdentifierAlreadyMinted)
	assert.NotErrorIs(t, err, ErrFingerprintAlreadyRegistered)

	var regErr *Error
	assert.True(t, errors.As(err, &regErr))
	assert.Equal(t, domain.TokenID(1234), regErr.TokenID)
}

func TestErrorAttribution(t *testing.T) {
	hash := domain.PDFHash{0xab}
	caller := domain.Address{0x01}

	tests := []struct {
		err  *Error
		want string
		code dErrors.Code
	}{
		{NotAuthorized(caller), "NotAuthorized(" + caller.Hex() + ")", dErrors.CodeForbidden},
		{InvalidIdentifier(0), "InvalidIdentifier(0)", dErrors.CodeValidation},
		{InvalidFingerprint(domain.PDFHash{}), "InvalidFingerprint(0x" + zeros(64) + ")", dErrors.CodeValidation},
		{FingerprintAlreadyRegistered(100, hash), "FingerprintAlreadyRegistered(100, " + hash.Hex() + ")", dErrors.CodeConflict},
		{IdentifierAlreadyMinted(1234, hash), "IdentifierAlreadyMinted(1234, " + hash.Hex() + ")", dErrors.CodeConflict},
		{NotMinted(7), "NotMinted(7)", dErrors.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(string(tt.err.Kind), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
			assert.Equal(t, tt.code, dErrors.CodeOf(tt.err))
			assert.Equal(t, string(tt.err.Kind), tt.err.ErrorKind())
		})
	}
}

func zeros(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = '0'
	}
	return string(b)
}
