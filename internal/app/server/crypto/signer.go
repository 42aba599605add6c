package crypto

import (
	stdcrypto "crypto"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
)

const DefaultRSABits = 2048

// KeyPair пара ключей устройства в PEM и отпечаток публичного ключа
type KeyPair struct {
	PrivatePEM  string
	PublicPEM   string
	Fingerprint string
}

// GenerateRSAKeyPair создает RSA ключ для устройства (используется CLI keygen)
func GenerateRSAKeyPair(bits int) (*KeyPair, error) {
	if bits <= 0 {
		bits = DefaultRSABits
	}

	priv, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate rsa key: %w", err)
	}

	pubDER, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal public key: %w", err)
	}

	privPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(priv),
	})
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	return &KeyPair{
		PrivatePEM:  string(privPEM),
		PublicPEM:   string(pubPEM),
		Fingerprint: Fingerprint(string(pubPEM)),
	}, nil
}

// SignChallenge подписывает challenge приватным ключом в PEM (PKCS#1 или PKCS#8)
// и возвращает подпись в стандартном base64.
func SignChallenge(privatePEM, challenge string) (string, error) {
	block, _ := pem.Decode([]byte(privatePEM))
	if block == nil {
		return "", fmt.Errorf("no PEM block in private key")
	}

	var key any
	var err error
	switch block.Type {
	case "RSA PRIVATE KEY":
		key, err = x509.ParsePKCS1PrivateKey(block.Bytes)
	case "PRIVATE KEY":
		key, err = x509.ParsePKCS8PrivateKey(block.Bytes)
	default:
		return "", fmt.Errorf("unsupported private key type %q", block.Type)
	}
	if err != nil {
		return "", fmt.Errorf("failed to parse private key: %w", err)
	}

	var sig []byte
	switch k := key.(type) {
	case *rsa.PrivateKey:
		digest := sha256.Sum256([]byte(challenge))
		sig, err = rsa.SignPKCS1v15(rand.Reader, k, stdcrypto.SHA256, digest[:])
		if err != nil {
			return "", fmt.Errorf("failed to sign: %w", err)
		}
	case ed25519.PrivateKey:
		sig = ed25519.Sign(k, []byte(challenge))
	default:
		return "", ErrUnsupportedKey
	}

	return base64.StdEncoding.EncodeToString(sig), nil
}
