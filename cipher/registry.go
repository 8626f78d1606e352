package cipher

import (
	"errors"
	"sort"
)

// Category tells stream methods (output size equals input size, no
// per-record authentication) apart from AEAD methods, which a framing
// layer above drives record by record.
type Category int

const (
	Stream Category = iota
	AEAD
)

type backendKind int

const (
	backendStream backendKind = iota // keyed stream from the provider table
	backendRC4                       // RC4 keyed with md5(key|iv)
	backendChaCha                    // dedicated ChaCha20 engine
	backendAEAD                      // AES-GCM records
)

// Info describes one catalogue entry: the provider identifier for the
// underlying primitive and the lengths (in bytes) the method requires.
// SaltLen and TagLen are meaningful for AEAD entries only.
type Info struct {
	InternalName string
	KeyLen       int
	IVLen        int
	Category     Category
	SaltLen      int
	TagLen       int

	kind backendKind
}

// ErrUnknownMethod is returned when a method name is not in the catalogue.
var ErrUnknownMethod = errors.New("unknown cipher method")

// methods is the catalogue of supported cipher methods. It is never
// mutated after initialization and therefore safe for concurrent reads.
//
// The original Shadowsocks-Qt catalogue labels aes-256-gcm with the
// provider name AES-128/GCM; a 32-byte key selects AES-256, so the
// identifier is corrected here.
var methods = map[string]Info{
	"aes-128-cfb":      {InternalName: "AES-128/CFB", KeyLen: 16, IVLen: 16, Category: Stream},
	"aes-192-cfb":      {InternalName: "AES-192/CFB", KeyLen: 24, IVLen: 16, Category: Stream},
	"aes-256-cfb":      {InternalName: "AES-256/CFB", KeyLen: 32, IVLen: 16, Category: Stream},
	"aes-128-ctr":      {InternalName: "AES-128/CTR-BE", KeyLen: 16, IVLen: 16, Category: Stream},
	"aes-192-ctr":      {InternalName: "AES-192/CTR-BE", KeyLen: 24, IVLen: 16, Category: Stream},
	"aes-256-ctr":      {InternalName: "AES-256/CTR-BE", KeyLen: 32, IVLen: 16, Category: Stream},
	"bf-cfb":           {InternalName: "Blowfish/CFB", KeyLen: 16, IVLen: 8, Category: Stream},
	"camellia-128-cfb": {InternalName: "Camellia-128/CFB", KeyLen: 16, IVLen: 16, Category: Stream},
	"camellia-192-cfb": {InternalName: "Camellia-192/CFB", KeyLen: 24, IVLen: 16, Category: Stream},
	"camellia-256-cfb": {InternalName: "Camellia-256/CFB", KeyLen: 32, IVLen: 16, Category: Stream},
	"cast5-cfb":        {InternalName: "CAST-128/CFB", KeyLen: 16, IVLen: 8, Category: Stream},
	"chacha20":         {InternalName: "ChaCha", KeyLen: 32, IVLen: 8, Category: Stream, kind: backendChaCha},
	"chacha20-ietf":    {InternalName: "ChaCha", KeyLen: 32, IVLen: 12, Category: Stream, kind: backendChaCha},
	"des-cfb":          {InternalName: "DES/CFB", KeyLen: 8, IVLen: 8, Category: Stream},
	"idea-cfb":         {InternalName: "IDEA/CFB", KeyLen: 16, IVLen: 8, Category: Stream},
	"rc2-cfb":          {InternalName: "RC2/CFB", KeyLen: 16, IVLen: 8, Category: Stream},
	"rc4-md5":          {InternalName: "RC4-MD5", KeyLen: 16, IVLen: 16, Category: Stream, kind: backendRC4},
	"salsa20":          {InternalName: "Salsa20", KeyLen: 32, IVLen: 8, Category: Stream},
	"seed-cfb":         {InternalName: "SEED/CFB", KeyLen: 16, IVLen: 16, Category: Stream},
	"serpent-256-cfb":  {InternalName: "Serpent/CFB", KeyLen: 32, IVLen: 16, Category: Stream},
	"aes-256-gcm":      {InternalName: "AES-256/GCM", KeyLen: 32, IVLen: 12, Category: AEAD, SaltLen: 32, TagLen: 16, kind: backendAEAD},
}

// Lookup returns the catalogue entry for method.
func Lookup(method string) (Info, error) {
	info, ok := methods[method]
	if !ok {
		return Info{}, ErrUnknownMethod
	}
	return info, nil
}

// IVLen returns the IV length required by method.
func IVLen(method string) (int, error) {
	info, err := Lookup(method)
	if err != nil {
		return 0, err
	}
	return info.IVLen, nil
}

// Methods returns all catalogue names sorted alphabetically.
func Methods() []string {
	l := make([]string, 0, len(methods))
	for name := range methods {
		l = append(l, name)
	}
	sort.Strings(l)
	return l
}

// SupportedMethods returns the catalogue names whose underlying
// primitive the provider supports.
func SupportedMethods() []string {
	var l []string
	for _, name := range Methods() {
		if IsSupported(methods[name].InternalName) {
			l = append(l, name)
		}
	}
	return l
}
