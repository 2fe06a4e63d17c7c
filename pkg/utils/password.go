package utils

import "golang.org/x/crypto/bcrypt"

const bcryptCost = 12

// dummyHash is a bcrypt hash of a throwaway value. Login runs a comparison
// against it when the account does not exist so the unknown-email path costs
// the same as a wrong-password path.
var dummyHash = func() string {
	h, err := bcrypt.GenerateFromPassword([]byte("jobport-dummy-credential"), bcryptCost)
	if err != nil {
		panic(err)
	}
	return string(h)
}()

func HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// CheckDummyPassword burns one bcrypt comparison and always fails.
func CheckDummyPassword(plaintext string) bool {
	_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(plaintext))
	return false
}
