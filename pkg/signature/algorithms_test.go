package signature

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSupported(t *testing.T) {
	assert := assert.New(t)

	names := Supported()
	assert.True(slices.IsSorted(names), "Should be sorted")
	for _, name := range []string{"md5", "sha1", "sha256", "sha384", "sha512"} {
		assert.Contains(names, name)
		assert.True(IsSupported(name))
	}
	assert.False(IsSupported("foo"))
	assert.False(IsSupported("SHA256"))
	assert.False(IsSupported(""))

	names[0] = "modified"
	assert.NotEqual("modified", Supported()[0], "Should return a copy")
}

func TestSign(t *testing.T) {
	assert := assert.New(t)

	// Same vector as used for GitHub style X-Hub-Signature-256 headers
	digest, err := Sign("sha256", []byte("testsecret"), []byte("test body"))
	assert.NoError(err)
	assert.Equal("f940fd6cb83a0567daa8d294f0f93ac29abfb5d9e9a25507bb6e88578dea344a", digest)

	digest, err = Sign("foo", []byte("testsecret"), []byte("test body"))
	assert.ErrorIs(err, ErrUnsupportedAlgorithm)
	assert.Empty(digest)
}

func TestDigestLength(t *testing.T) {
	tMatrix := map[string]int{
		"md5":        32,
		"sha1":       40,
		"sha224":     56,
		"sha256":     64,
		"sha384":     96,
		"sha512":     128,
		"sha512-224": 56,
		"sha512-256": 64,
		"sha3-224":   56,
		"sha3-256":   64,
		"sha3-384":   96,
		"sha3-512":   128,
		"blake2b512": 128,
		"blake2s256": 64,
		"ripemd160":  40,
		"blake3":     64,
	}
	assert.Len(t, Supported(), len(tMatrix), "Every supported algorithm should be covered")

	for algorithm, length := range tMatrix {
		t.Run(algorithm, func(t *testing.T) {
			digest, err := Sign(algorithm, []byte(testSecret), nil)
			assert.NoError(t, err)
			assert.Len(t, digest, length)
		})
	}
}

func TestFormatHeader(t *testing.T) {
	assert.Equal(t, "sha1=abc", FormatHeader("sha1", "abc"))
}
