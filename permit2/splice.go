package permit2

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// lengthPrefixSize is the fixed 32-byte big-endian unsigned-integer
// length prefix the aggregator's v2 calldata convention requires.
const lengthPrefixSize = 32

// Splice produces originalData ∥ uint256_be(len(signature bytes)) ∥
// signature, where both originalData and signature are "0x"-prefixed hex
// strings. The length prefix is exactly 32 bytes, big-endian, unsigned —
// this shape is byte-exact by construction, not by convention.
func Splice(originalData, signature string) (string, error) {
	origBytes, err := hex.DecodeString(normalizeHex(originalData))
	if err != nil {
		return "", fmt.Errorf("permit2: decoding original data: %w", err)
	}
	sigBytes, err := hex.DecodeString(normalizeHex(signature))
	if err != nil {
		return "", fmt.Errorf("permit2: decoding signature: %w", err)
	}

	prefix := make([]byte, lengthPrefixSize)
	binary.BigEndian.PutUint64(prefix[lengthPrefixSize-8:], uint64(len(sigBytes)))

	out := make([]byte, 0, len(origBytes)+lengthPrefixSize+len(sigBytes))
	out = append(out, origBytes...)
	out = append(out, prefix...)
	out = append(out, sigBytes...)

	return "0x" + hex.EncodeToString(out), nil
}

// Unsplice reverses Splice. sigLen is the signature length in bytes the
// caller expects (always 65 for the secp256k1 signatures this system
// produces); callers that already hold the signature from the Sign step
// should pass len(sigBytes) rather than guessing. It verifies the
// embedded length prefix actually matches sigLen before trusting it.
func Unsplice(modifiedData string, sigLen int) (originalData string, signature string, err error) {
	b, err := hex.DecodeString(normalizeHex(modifiedData))
	if err != nil {
		return "", "", fmt.Errorf("permit2: decoding modified data: %w", err)
	}
	if len(b) < lengthPrefixSize+sigLen {
		return "", "", fmt.Errorf("permit2: modified data shorter than prefix+signature")
	}

	split := len(b) - sigLen
	prefixStart := split - lengthPrefixSize
	prefix := b[prefixStart:split]

	embeddedLen := binary.BigEndian.Uint64(prefix[lengthPrefixSize-8:])
	if int(embeddedLen) != sigLen {
		return "", "", fmt.Errorf("permit2: length prefix encodes %d, expected %d", embeddedLen, sigLen)
	}
	for _, x := range prefix[:lengthPrefixSize-8] {
		if x != 0 {
			return "", "", fmt.Errorf("permit2: length prefix has unexpected non-zero high bytes")
		}
	}

	return "0x" + hex.EncodeToString(b[:prefixStart]), "0x" + hex.EncodeToString(b[split:]), nil
}
