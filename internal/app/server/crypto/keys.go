package crypto

import (
	stdcrypto "crypto"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/ssh"
)

// FingerprintLen длина отпечатка в hex символах
const FingerprintLen = 16

var (
	ErrInvalidKey       = errors.New("invalid public key")
	ErrUnsupportedKey   = errors.New("unsupported public key type")
	ErrInvalidSignature = errors.New("invalid signature")
)

// Fingerprint возвращает первые 16 hex символов SHA-256 от текста ключа как он был прислан
func Fingerprint(publicKey string) string {
	sum := sha256.Sum256([]byte(publicKey))
	return hex.EncodeToString(sum[:])[:FingerprintLen]
}

// rsaComponents JSON представление RSA ключа: модуль и экспонента в base64
type rsaComponents struct {
	N string `json:"n"`
	E string `json:"e"`
}

// ParsePublicKey разбирает ключ в одном из форматов:
// PEM (PKIX или PKCS#1), JSON {n, e}, OpenSSH authorized_keys.
func ParsePublicKey(text string) (stdcrypto.PublicKey, error) {
	trimmed := strings.TrimSpace(text)

	var (
		key stdcrypto.PublicKey
		err error
	)
	switch {
	case strings.HasPrefix(trimmed, "-----BEGIN"):
		key, err = parsePEM(trimmed)
	case strings.HasPrefix(trimmed, "{"):
		key, err = parseComponents(trimmed)
	case strings.HasPrefix(trimmed, "ssh-"):
		key, err = parseAuthorizedKey(trimmed)
	default:
		return nil, ErrInvalidKey
	}
	if err != nil {
		return nil, err
	}

	switch key.(type) {
	case *rsa.PublicKey, ed25519.PublicKey:
		return key, nil
	default:
		return nil, ErrUnsupportedKey
	}
}

func parsePEM(text string) (stdcrypto.PublicKey, error) {
	block, _ := pem.Decode([]byte(text))
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block", ErrInvalidKey)
	}

	switch block.Type {
	case "PUBLIC KEY":
		key, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		return key, nil
	case "RSA PUBLIC KEY":
		key, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		return key, nil
	default:
		return nil, fmt.Errorf("%w: PEM type %q", ErrUnsupportedKey, block.Type)
	}
}

func parseComponents(text string) (stdcrypto.PublicKey, error) {
	var c rsaComponents
	if err := json.Unmarshal([]byte(text), &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if c.N == "" || c.E == "" {
		return nil, fmt.Errorf("%w: n and e are required", ErrInvalidKey)
	}

	n, err := decodeBase64(c.N)
	if err != nil {
		return nil, fmt.Errorf("%w: modulus: %v", ErrInvalidKey, err)
	}
	e, err := decodeBase64(c.E)
	if err != nil {
		return nil, fmt.Errorf("%w: exponent: %v", ErrInvalidKey, err)
	}

	exp := new(big.Int).SetBytes(e)
	if !exp.IsInt64() || exp.Int64() < 3 || exp.Int64() > 1<<31-1 {
		return nil, fmt.Errorf("%w: exponent out of range", ErrInvalidKey)
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(n),
		E: int(exp.Int64()),
	}, nil
}

func parseAuthorizedKey(text string) (stdcrypto.PublicKey, error) {
	pub, _, _, _, err := ssh.ParseAuthorizedKey([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	cpk, ok := pub.(ssh.CryptoPublicKey)
	if !ok {
		return nil, ErrUnsupportedKey
	}
	return cpk.CryptoPublicKey(), nil
}

// decodeBase64 принимает стандартный и URL-safe алфавиты, с паддингом и без
func decodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	}

	var lastErr error
	for _, enc := range encodings {
		b, err := enc.DecodeString(s)
		if err == nil {
			return b, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
