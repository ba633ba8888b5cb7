package services

import (
	"encoding/base64"

	"github.com/google/uuid"
)

// EncodeUID renders a user id for use in a flow link path.
func EncodeUID(id string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(id))
}

// DecodeUID reverses EncodeUID and reports whether the result is a
// well-formed user id.
func DecodeUID(uidb64 string) (string, bool) {
	raw, err := base64.RawURLEncoding.DecodeString(uidb64)
	if err != nil {
		return "", false
	}
	id, err := uuid.Parse(string(raw))
	if err != nil {
		return "", false
	}
	return id.String(), true
}
