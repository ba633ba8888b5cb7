package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		password string
		email    string
		want     []string
	}{
		{name: "strong", password: "12345678test", email: "a@x.com", want: nil},
		{name: "strong against similar-looking email", password: "12345678test", email: "test@gmail.com", want: nil},
		{name: "empty", password: "", email: "a@x.com", want: []string{msgPasswordRequired}},
		{name: "short", password: "ab1cd", email: "a@x.com", want: []string{msgPasswordTooShort}},
		{name: "numeric", password: "9081726354", email: "a@x.com", want: []string{msgPasswordNumeric}},
		{name: "common", password: "Password", email: "a@x.com", want: []string{msgPasswordTooCommon}},
		{name: "short common numeric", password: "123456", email: "a@x.com", want: []string{msgPasswordTooShort, msgPasswordTooCommon, msgPasswordNumeric}},
		{name: "similar to email", password: "johnsmith1", email: "johnsmith@example.com", want: []string{msgPasswordTooSimilar}},
		{name: "no email skips similarity", password: "johnsmith1", email: "", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidatePassword(tt.password, tt.email))
		})
	}
}

func TestQuickRatio(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1.0, quickRatio("abc", "cba"), 1e-9)
	assert.InDelta(t, 0.0, quickRatio("abc", "xyz"), 1e-9)
	assert.InDelta(t, 0.5, quickRatio("12345678test", "test"), 1e-9)
}
