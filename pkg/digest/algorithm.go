package digest

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"hash"

	"github.com/pkg/errors"

	"github.com/zeebo/blake3"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// ErrUnknownAlgorithm is returned when an unrecognized digest algorithm is
// requested.
var ErrUnknownAlgorithm = errors.New("unknown digest algorithm")

// Algorithm identifies a digest algorithm.
type Algorithm uint8

const (
	// AlgorithmMD5 indicates MD5.
	AlgorithmMD5 Algorithm = iota + 1
	// AlgorithmSHA1 indicates SHA-1.
	AlgorithmSHA1
	// AlgorithmSHA256 indicates SHA-256.
	AlgorithmSHA256
	// AlgorithmSHA512 indicates SHA-512.
	AlgorithmSHA512
	// AlgorithmSHA3_256 indicates SHA3-256.
	AlgorithmSHA3_256
	// AlgorithmSHA3_512 indicates SHA3-512.
	AlgorithmSHA3_512
	// AlgorithmBLAKE2b256 indicates unkeyed BLAKE2b-256.
	AlgorithmBLAKE2b256
	// AlgorithmBLAKE2b512 indicates unkeyed BLAKE2b-512.
	AlgorithmBLAKE2b512
	// AlgorithmBLAKE3 indicates unkeyed BLAKE3 with a 256-bit output.
	AlgorithmBLAKE3
)

// DefaultAlgorithm is the algorithm used when none is specified.
const DefaultAlgorithm = AlgorithmMD5

// algorithmNames maps algorithms to their names.
var algorithmNames = map[Algorithm]string{
	AlgorithmMD5:        "md5",
	AlgorithmSHA1:       "sha1",
	AlgorithmSHA256:     "sha256",
	AlgorithmSHA512:     "sha512",
	AlgorithmSHA3_256:   "sha3-256",
	AlgorithmSHA3_512:   "sha3-512",
	AlgorithmBLAKE2b256: "blake2b-256",
	AlgorithmBLAKE2b512: "blake2b-512",
	AlgorithmBLAKE3:     "blake3",
}

// Algorithms returns all supported algorithms in definition order.
func Algorithms() []Algorithm {
	result := make([]Algorithm, 0, len(algorithmNames))
	for a := AlgorithmMD5; a <= AlgorithmBLAKE3; a++ {
		result = append(result, a)
	}
	return result
}

// ParseAlgorithm converts an algorithm name to an Algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	for algorithm, algorithmName := range algorithmNames {
		if name == algorithmName {
			return algorithm, nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownAlgorithm, "%q", name)
}

// String provides a human-readable representation of an algorithm.
func (a Algorithm) String() string {
	if name, ok := algorithmNames[a]; ok {
		return name
	}
	return "unknown"
}

// New creates a new hash accumulator for the algorithm.
func (a Algorithm) New() (hash.Hash, error) {
	switch a {
	case AlgorithmMD5:
		return md5.New(), nil
	case AlgorithmSHA1:
		return sha1.New(), nil
	case AlgorithmSHA256:
		return sha256.New(), nil
	case AlgorithmSHA512:
		return sha512.New(), nil
	case AlgorithmSHA3_256:
		return sha3.New256(), nil
	case AlgorithmSHA3_512:
		return sha3.New512(), nil
	case AlgorithmBLAKE2b256:
		return blake2b.New256(nil)
	case AlgorithmBLAKE2b512:
		return blake2b.New512(nil)
	case AlgorithmBLAKE3:
		return blake3.New(), nil
	default:
		return nil, errors.Wrapf(ErrUnknownAlgorithm, "algorithm %d", a)
	}
}

// IsDefault indicates whether or not the algorithm is the zero value, which
// selects DefaultAlgorithm.
func (a Algorithm) IsDefault() bool {
	return a == 0
}

// MarshalText implements encoding.TextMarshaler.MarshalText.
func (a Algorithm) MarshalText() ([]byte, error) {
	if a.IsDefault() {
		return nil, nil
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.UnmarshalText.
func (a *Algorithm) UnmarshalText(textBytes []byte) error {
	algorithm, err := ParseAlgorithm(string(textBytes))
	if err != nil {
		return err
	}
	*a = algorithm
	return nil
}
