package utils

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// clampCost keeps a configured cost inside the range bcrypt accepts.
func clampCost(cost int) int {
	return min(max(cost, bcrypt.MinCost), bcrypt.MaxCost)
}

// HashPassword hashes plain with bcrypt. Out of range costs are clamped
// rather than rejected.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), clampCost(cost))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether plain matches hash.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// NeedsRehash is true when hash was produced with a cost other than the
// configured one, or cannot be parsed at all.
func NeedsRehash(hash string, cost int) bool {
	got, err := bcrypt.Cost([]byte(hash))
	return err != nil || got != clampCost(cost)
}

var decoyHash = sync.OnceValue(func() []byte {
	b, _ := bcrypt.GenerateFromPassword([]byte("decoy-password"), bcrypt.DefaultCost)
	return b
})

// BurnPasswordCheck spends one bcrypt comparison so that a login for an
// unknown username takes as long as one with a wrong password.
func BurnPasswordCheck(plain string) {
	_ = bcrypt.CompareHashAndPassword(decoyHash(), []byte(plain))
}
