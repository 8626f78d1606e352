// Package cipher provides a uniform interface over the cipher methods
// understood by Shadowsocks peers: a fixed catalogue of named stream
// ciphers plus AES-GCM, a per-direction Cipher transform, and the small
// helpers (random IVs, truncated HMAC-SHA1, MD5, AEAD subkey derivation)
// that the protocol layers are built from.
package cipher
