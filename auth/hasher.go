package auth

import (
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// bcrypt ignores everything past 72 bytes.
const maxPasswordBytes = 72

// ErrMalformedHash is returned when a stored token is not a bcrypt hash.
var ErrMalformedHash = errors.New("malformed password hash")

// Hasher turns passwords into self-describing hash tokens and checks
// passwords against them.
type Hasher interface {
	Hash(password string) (string, error)
	// Verify reports whether password matches hash. A mismatch is not an
	// error; only a structurally invalid hash is.
	Verify(password, hash string) (bool, error)
}

type bcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a Hasher using the given bcrypt cost. A cost
// outside bcrypt's accepted range is an error.
func NewBcryptHasher(cost int) (Hasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, errors.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &bcryptHasher{cost: cost}, nil
}

func (h *bcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", errors.Wrap(err, "error hashing password")
	}
	return string(hash), nil
}

// Verify rejects passwords longer than maxPasswordBytes outright; Hash never
// accepts them, so no stored hash can match one.
func (h *bcryptHasher) Verify(password, hash string) (bool, error) {
	if len(password) > maxPasswordBytes {
		return false, nil
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case err == bcrypt.ErrMismatchedHashAndPassword:
		return false, nil
	default:
		return false, errors.Wrap(ErrMalformedHash, err.Error())
	}
}
