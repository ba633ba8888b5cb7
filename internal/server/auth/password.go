package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/soundhub/internal/common"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
)

const (
	AlgorithmPBKDF2 = "pbkdf2_sha256"
	AlgorithmBcrypt = "bcrypt"

	DefaultPBKDF2Iterations = 600000

	pbkdf2KeyLen = 32
	saltLen      = 22
	saltAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// PasswordHasher encodes passwords for storage and verifies candidates.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) bool
}

// Passwords hashes with a configured algorithm and verifies any supported
// encoding:
//
//	pbkdf2_sha256$<iterations>$<salt>$<base64 key>
//	bcrypt$<bcrypt hash>
type Passwords struct {
	algorithm  string
	iterations int
}

func NewPasswords(algorithm string, iterations int) (*Passwords, error) {
	switch algorithm {
	case "", AlgorithmPBKDF2:
		algorithm = AlgorithmPBKDF2
	case AlgorithmBcrypt:
	default:
		return nil, fmt.Errorf("unsupported password hasher %q", algorithm)
	}
	if iterations <= 0 {
		iterations = DefaultPBKDF2Iterations
	}
	return &Passwords{algorithm: algorithm, iterations: iterations}, nil
}

func (p *Passwords) Hash(password string) (string, error) {
	if p.algorithm == AlgorithmBcrypt {
		h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return "", err
		}
		return AlgorithmBcrypt + "$" + string(h), nil
	}

	salt := randomSalt()
	return encodePBKDF2(password, salt, p.iterations), nil
}

func (p *Passwords) Verify(password, encoded string) bool {
	if encoded == "" || strings.HasPrefix(encoded, common.UnusablePasswordPrefix) {
		return false
	}

	algorithm, rest, ok := strings.Cut(encoded, "$")
	if !ok {
		return false
	}

	switch algorithm {
	case AlgorithmPBKDF2:
		parts := strings.Split(rest, "$")
		if len(parts) != 3 {
			return false
		}
		iterations, err := strconv.Atoi(parts[0])
		if err != nil || iterations <= 0 {
			return false
		}
		candidate := encodePBKDF2(password, parts[1], iterations)
		return subtle.ConstantTimeCompare([]byte(candidate), []byte(encoded)) == 1
	case AlgorithmBcrypt:
		return bcrypt.CompareHashAndPassword([]byte(rest), []byte(password)) == nil
	default:
		return false
	}
}

// MakeUnusablePassword returns a stored value no password verifies against.
func MakeUnusablePassword() string {
	s, err := common.MakeRandHexString(20)
	if err != nil {
		return common.UnusablePasswordPrefix
	}
	return common.UnusablePasswordPrefix + s
}

func encodePBKDF2(password, salt string, iterations int) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), iterations, pbkdf2KeyLen, sha256.New)
	return fmt.Sprintf("%s$%d$%s$%s", AlgorithmPBKDF2, iterations, salt,
		base64.StdEncoding.EncodeToString(key))
}

func randomSalt() string {
	b := common.GenerateRandByteArray(saltLen)
	for i := range b {
		b[i] = saltAlphabet[int(b[i])%len(saltAlphabet)]
	}
	return string(b)
}
