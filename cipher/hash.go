package cipher

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/rand"
	"crypto/sha1"
	"io"
)

// AuthLen is the truncation length of HMAC-SHA1 tags in Shadowsocks
// one-time authentication.
const AuthLen = 10

// HmacSHA1 returns the first AuthLen bytes of the HMAC-SHA1 tag of msg
// under key.
func HmacSHA1(key, msg []byte) []byte {
	mac := hmac.New(sha1.New, key)
	mac.Write(msg)
	return mac.Sum(nil)[:AuthLen]
}

// MD5Sum returns the 16-byte MD5 digest of b. Some methods (rc4-md5)
// and the password key derivation rely on it.
func MD5Sum(b []byte) []byte {
	sum := md5.Sum(b)
	return sum[:]
}

// RandomIV returns n bytes from the system CSPRNG. n of zero yields an
// empty, non-nil slice.
func RandomIV(n int) ([]byte, error) {
	iv := make([]byte, n)
	if n == 0 {
		return iv, nil
	}
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, err
	}
	return iv, nil
}

// RandomIVFromMethod returns a random IV of the length method requires.
func RandomIVFromMethod(method string) ([]byte, error) {
	n, err := IVLen(method)
	if err != nil {
		return nil, err
	}
	return RandomIV(n)
}
