package utils

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
)

// HashPassword returns the hex MD5 digest of a plaintext password.
//
// WEAK: MD5 is fast and unsalted, so stored digests are vulnerable to
// offline brute force. It is kept because every credential already in the
// user_detail table was digested this way; migrating the scheme means
// re-enrolling all users.
func HashPassword(plain string) string {
	sum := md5.Sum([]byte(plain))
	return hex.EncodeToString(sum[:])
}

// VerifyPassword compares a stored digest against a plaintext candidate in
// constant time.
func VerifyPassword(digest, plain string) bool {
	candidate := HashPassword(plain)
	return subtle.ConstantTimeCompare([]byte(digest), []byte(candidate)) == 1
}
