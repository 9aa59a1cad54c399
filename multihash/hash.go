package multihash

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"

	mh "github.com/multiformats/go-multihash"
	_ "github.com/multiformats/go-multihash/register/blake3"
)

// ErrMismatch is returned when data does not hash to the expected value
var ErrMismatch = errors.New("hash verification failed")

// ResultHash wraps a BLAKE3 multihash identifying an encoded result
// Format: <0x1e><0x20><32 bytes> = 34 bytes total
type ResultHash []byte

// Size is the length of a ResultHash in bytes
const Size = 34

// Sum creates a BLAKE3 multihash from data
func Sum(data []byte) (ResultHash, error) {
	h, err := mh.Sum(data, mh.BLAKE3, 32)
	if err != nil {
		return nil, fmt.Errorf("failed to hash data: %w", err)
	}
	return ResultHash(h), nil
}

// Parse decodes a hex string produced by Hex and checks it is a BLAKE3 multihash
func Parse(s string) (ResultHash, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}

	decoded, err := mh.Decode(mh.Multihash(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid multihash: %w", err)
	}
	if decoded.Code != mh.BLAKE3 {
		return nil, fmt.Errorf("expected BLAKE3 hash, got 0x%x", decoded.Code)
	}

	return ResultHash(raw), nil
}

// Verify checks that the hash matches the provided data
func (h ResultHash) Verify(data []byte) error {
	decoded, err := mh.Decode(mh.Multihash(h))
	if err != nil {
		return fmt.Errorf("invalid multihash: %w", err)
	}

	if decoded.Code != mh.BLAKE3 {
		return fmt.Errorf("expected BLAKE3 hash, got 0x%x", decoded.Code)
	}

	computed, err := mh.Sum(data, decoded.Code, decoded.Length)
	if err != nil {
		return fmt.Errorf("hash computation failed: %w", err)
	}

	if !bytes.Equal(computed, h) {
		return ErrMismatch
	}

	return nil
}

// Bytes returns the raw multihash bytes
func (h ResultHash) Bytes() []byte {
	return []byte(h)
}

// Hex returns the hex-encoded multihash
func (h ResultHash) Hex() string {
	return hex.EncodeToString(h)
}

func (h ResultHash) String() string {
	return h.Hex()
}
