package signature

import (
	"crypto/hmac"
	"crypto/md5"  // #nosec G501 -- md5 is a valid webhook signature algorithm, it is only used for HMAC
	"crypto/sha1" // #nosec G505 -- sha1 is used by X-Hub-Signature, it is only used for HMAC
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"slices"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/blake2s"
	"golang.org/x/crypto/ripemd160" // #nosec G507 -- kept for compatibility with openssl digest names
	"golang.org/x/crypto/sha3"
)

var ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")

// Digest constructors usable with HMAC, keyed by the name used in the signature header.
// The set is fixed at startup and never modified afterwards.
var algorithms = map[string]func() hash.Hash{
	"md5":        md5.New,
	"sha1":       sha1.New,
	"sha224":     sha256.New224,
	"sha256":     sha256.New,
	"sha384":     sha512.New384,
	"sha512":     sha512.New,
	"sha512-224": sha512.New512_224,
	"sha512-256": sha512.New512_256,
	"sha3-224":   sha3.New224,
	"sha3-256":   sha3.New256,
	"sha3-384":   sha3.New384,
	"sha3-512":   sha3.New512,
	"blake2b512": newBlake2b512,
	"blake2s256": newBlake2s256,
	"ripemd160":  ripemd160.New,
	"blake3":     newBlake3,
}

var supported = sortedNames()

func sortedNames() []string {
	names := make([]string, 0, len(algorithms))
	for name := range algorithms {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Return the sorted names of all supported algorithms.
// The returned slice is a copy and may be modified by the caller.
func Supported() []string {
	return slices.Clone(supported)
}

// Check if the algorithm name is supported, the comparison is case-sensitive.
func IsSupported(algorithm string) bool {
	_, ok := algorithms[algorithm]
	return ok
}

// Compute the HMAC of message with the given algorithm and secret.
// Returns the digest as lowercase hex.
func Sign(algorithm string, secret, message []byte) (string, error) {
	newHash, ok := algorithms[algorithm]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, algorithm)
	}

	mac := hmac.New(newHash, secret)
	_, err := mac.Write(message)
	if err != nil {
		return "", fmt.Errorf("failed to write message to hash: %w", err)
	}
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Format a digest the way it is expected in the signature header
func FormatHeader(algorithm, digest string) string {
	return algorithm + "=" + digest
}

func newBlake2b512() hash.Hash {
	// Only fails for keys longer than 64 bytes
	h, _ := blake2b.New512(nil)
	return h
}

func newBlake2s256() hash.Hash {
	h, _ := blake2s.New256(nil)
	return h
}

func newBlake3() hash.Hash {
	return blake3.New()
}
