package crypto

import (
	stdcrypto "crypto"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

const challengeSize = 32

// NewChallenge генерирует 32 случайных байта в hex
func NewChallenge() (string, error) {
	b := make([]byte, challengeSize)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate challenge: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// VerifySignature проверяет подпись challenge ключом publicKey.
// RSA: PKCS#1 v1.5 над SHA-256, Ed25519: подпись над байтами challenge.
func VerifySignature(publicKey, challenge, signature string) error {
	key, err := ParsePublicKey(publicKey)
	if err != nil {
		return err
	}

	sig, err := decodeBase64(signature)
	if err != nil || len(sig) == 0 {
		return ErrInvalidSignature
	}

	switch k := key.(type) {
	case *rsa.PublicKey:
		digest := sha256.Sum256([]byte(challenge))
		if err := rsa.VerifyPKCS1v15(k, stdcrypto.SHA256, digest[:], sig); err != nil {
			return ErrInvalidSignature
		}
	case ed25519.PublicKey:
		if !ed25519.Verify(k, []byte(challenge), sig) {
			return ErrInvalidSignature
		}
	default:
		return ErrUnsupportedKey
	}

	return nil
}
