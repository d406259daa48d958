// Copyright (c) 2026 Sentra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// codeByteLength is the entropy of a secret code before encoding.
// 16 bytes encode to 22 URL-safe characters.
const codeByteLength = 16

// GenerateCode returns a single-purpose secret code for email verification
// and password reset flows. Codes are random and opaque; uniqueness is not
// checked because each code is scoped to exactly one account.
func GenerateCode() (string, error) {
	buffer := make([]byte, codeByteLength)
	if _, err := rand.Read(buffer); err != nil {
		return "", fmt.Errorf("sec: generate code: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buffer), nil
}
