package hashutil

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"lukechampine.com/blake3"
)

type HashAlgo string

const (
	HashAlgoSHA256 HashAlgo = "sha256"
	HashAlgoBLAKE3 HashAlgo = "blake3"
)

// HashBytes returns the hex digest of data using the given algorithm.
func HashBytes(data []byte, algo HashAlgo) (string, error) {
	switch algo {
	case HashAlgoSHA256:
		sum := sha256.Sum256(data)
		return hex.EncodeToString(sum[:]), nil
	case HashAlgoBLAKE3:
		sum := blake3.Sum256(data)
		return hex.EncodeToString(sum[:]), nil
	default:
		return "", fmt.Errorf("unsupported hash algorithm: %s", algo)
	}
}

// HashStrings digests an ordered list of strings. Each element is
// length-prefixed, so ["ab","c"] and ["a","bc"] never collide and
// element order is part of the digest.
func HashStrings(values []string, algo HashAlgo) (string, error) {
	return HashBytes(encodeStrings(values), algo)
}

func encodeStrings(values []string) []byte {
	size := 0
	for _, v := range values {
		size += binary.MaxVarintLen64 + len(v)
	}
	buf := make([]byte, 0, size)
	for _, v := range values {
		buf = binary.AppendUvarint(buf, uint64(len(v)))
		buf = append(buf, v...)
	}
	return buf
}
