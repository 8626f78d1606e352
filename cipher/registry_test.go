package cipher

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCatalogueInvariants(t *testing.T) {
	require.NotEmpty(t, methods)
	for name, info := range methods {
		require.Greater(t, info.KeyLen, 0, name)
		require.GreaterOrEqual(t, info.IVLen, 0, name)
		require.NotEmpty(t, info.InternalName, name)
		if info.Category == AEAD {
			require.Greater(t, info.SaltLen, 0, name)
			require.Greater(t, info.TagLen, 0, name)
		} else {
			require.Zero(t, info.SaltLen, name)
			require.Zero(t, info.TagLen, name)
		}
	}
}

func TestLookup(t *testing.T) {
	info, err := Lookup("aes-256-cfb")
	require.NoError(t, err)
	require.Equal(t, "AES-256/CFB", info.InternalName)
	require.Equal(t, 32, info.KeyLen)
	require.Equal(t, 16, info.IVLen)
	require.Equal(t, Stream, info.Category)

	_, err = Lookup("AES-256-CFB") // catalogue names are lower-case
	require.ErrorIs(t, err, ErrUnknownMethod)

	n, err := IVLen("chacha20-ietf")
	require.NoError(t, err)
	require.Equal(t, 12, n)

	_, err = IVLen("bogus")
	require.ErrorIs(t, err, ErrUnknownMethod)
}

func TestMethodsSorted(t *testing.T) {
	l := Methods()
	require.Len(t, l, len(methods))
	require.True(t, sort.StringsAreSorted(l))
}

func TestSupportedMethodsCoverage(t *testing.T) {
	supported := SupportedMethods()
	require.NotEmpty(t, supported)

	all := make(map[string]bool)
	for _, name := range Methods() {
		all[name] = true
	}
	for _, name := range supported {
		require.True(t, all[name], "unknown method %q in supported set", name)
	}

	// every catalogue entry resolves through the current provider table
	require.Equal(t, Methods(), supported)
}

func TestIsSupported(t *testing.T) {
	require.False(t, IsSupported("bogus-cipher"))
	require.True(t, IsSupported("AES-256/CFB"))
	require.True(t, IsSupported("RC4-MD5"))
	require.True(t, IsSupported("ChaCha"))
	require.True(t, IsSupported("Salsa20"))
	// user-visible names other than rc4/chacha variants are not provider
	// identifiers and resolve to false
	require.False(t, IsSupported("aes-256-cfb"))
}
