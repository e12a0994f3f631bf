package anonymize

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sort"
	"strings"

	"hiretrack/internal/textutil"
)

// ErrEmptySalt is returned when a Hasher is built without a salt.
var ErrEmptySalt = errors.New("anonymization salt is empty")

// NormalizeName folds a person's name and sorts its tokens so "Jane Doe" and
// " doe  JANE " produce the same value.
func NormalizeName(name string) string {
	tokens := textutil.Tokens(name)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Hasher computes salted SHA-256 digests of normalized identity fields.
type Hasher struct {
	salt string
}

// NewHasher returns a Hasher for the given salt.
func NewHasher(salt string) (Hasher, error) {
	if strings.TrimSpace(salt) == "" {
		return Hasher{}, ErrEmptySalt
	}
	return Hasher{salt: salt}, nil
}

// HashName returns the hex digest of the normalized name, or "" for a blank name.
func (h Hasher) HashName(name string) string {
	return h.digest(NormalizeName(name))
}

// HashEmail returns the hex digest of the normalized email, or "" for a blank email.
func (h Hasher) HashEmail(email string) string {
	return h.digest(NormalizeEmail(email))
}

func (h Hasher) digest(normalized string) string {
	if normalized == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(h.salt + normalized))
	return hex.EncodeToString(sum[:])
}
