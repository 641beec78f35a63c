package util

import (
	"encoding/base64"

	"github.com/google/uuid"
)

// ShortID generates a short unique ID with 22 symbols
func ShortID() string {
	u := uuid.New()
	return base64.RawURLEncoding.EncodeToString(u[:]) // 22 symbols
}
