package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters. Changing them changes the encoded hash prefix, so
// stored credentials keep verifying with the parameters they were created
// under.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
)

const minPasswordLen = 8

var ErrWeakPassword = errors.New("password too short")

// HashPassword derives an encoded argon2id hash from the password, a
// per-user salt and the process-wide pepper.
func HashPassword(password, salt, pepper string) (string, error) {
	if len(password) < minPasswordLen {
		return "", ErrWeakPassword
	}
	key := argon2.IDKey([]byte(password+pepper), []byte(salt), argonTime, argonMemory, argonThreads, argonKeyLen)
	return fmt.Sprintf("argon2id$%d$%d$%d$%s", argonTime, argonMemory, argonThreads,
		base64.RawStdEncoding.EncodeToString(key)), nil
}

// VerifyPassword recomputes the hash with the stored parameters and
// compares in constant time.
func VerifyPassword(password, salt, pepper, encoded string) bool {
	parts := strings.Split(encoded, "$")
	if len(parts) != 5 || parts[0] != "argon2id" {
		return false
	}
	var t, m uint32
	var p uint8
	if _, err := fmt.Sscanf(parts[1]+" "+parts[2]+" "+parts[3], "%d %d %d", &t, &m, &p); err != nil {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	got := argon2.IDKey([]byte(password+pepper), []byte(salt), t, m, p, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}
