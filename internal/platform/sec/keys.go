// Copyright (c) 2026 Sentra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package sec provides cryptographic primitives and token management.

It isolates security-sensitive code (Hashing, JWT Signing, secret code
generation) from the domain logic. It acts as an Infrastructure service
injected into the Application layer via narrow interfaces.
*/
package sec

import (
	"crypto/rsa"
	"encoding/base64"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// # Key Material

// KeySet holds the four long-lived RSA keys used for token signing and
// verification. It is loaded once at startup and immutable for the process
// lifetime; there is no key rotation.
type KeySet struct {
	AccessPrivate  *rsa.PrivateKey
	AccessPublic   *rsa.PublicKey
	RefreshPrivate *rsa.PrivateKey
	RefreshPublic  *rsa.PublicKey
}

// KeyMaterial carries the raw base64-encoded PEM blocks from configuration.
type KeyMaterial struct {
	AccessTokenPrivateKey  string
	AccessTokenPublicKey   string
	RefreshTokenPrivateKey string
	RefreshTokenPublicKey  string
}

// NewKeySet decodes and parses all four key materials.
//
// Any decoding or parsing failure is returned immediately: a process without
// a complete key set must not start.
func NewKeySet(material KeyMaterial) (*KeySet, error) {
	accessPrivate, err := parsePrivateKey(material.AccessTokenPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("sec: access private key: %w", err)
	}

	accessPublic, err := parsePublicKey(material.AccessTokenPublicKey)
	if err != nil {
		return nil, fmt.Errorf("sec: access public key: %w", err)
	}

	refreshPrivate, err := parsePrivateKey(material.RefreshTokenPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("sec: refresh private key: %w", err)
	}

	refreshPublic, err := parsePublicKey(material.RefreshTokenPublicKey)
	if err != nil {
		return nil, fmt.Errorf("sec: refresh public key: %w", err)
	}

	return &KeySet{
		AccessPrivate:  accessPrivate,
		AccessPublic:   accessPublic,
		RefreshPrivate: refreshPrivate,
		RefreshPublic:  refreshPublic,
	}, nil
}

// parsePrivateKey converts a base64-encoded PEM block into an RSA private key.
func parsePrivateKey(encoded string) (*rsa.PrivateKey, error) {
	pemBytes, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 encoding: %w", err)
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("invalid PEM block: %w", err)
	}

	return key, nil
}

// parsePublicKey converts a base64-encoded PEM block into an RSA public key.
func parsePublicKey(encoded string) (*rsa.PublicKey, error) {
	pemBytes, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 encoding: %w", err)
	}

	key, err := jwt.ParseRSAPublicKeyFromPEM(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("invalid PEM block: %w", err)
	}

	return key, nil
}
