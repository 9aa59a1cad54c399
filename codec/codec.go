package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/shruggr/fpgrowth/itemset"
	"github.com/shruggr/fpgrowth/multihash"
)

// Binary encoding of a mining result
//
// FORMAT:
// ┌──────────────────────────────────┐
// │ Header (8 bytes)                 │
// │ - version: 1 byte                │
// │ - flags: 1 byte (reserved)       │
// │ - max_size: 2 bytes (uint16)     │
// │ - entry_count: 4 bytes (uint32)  │
// ├──────────────────────────────────┤
// │ Entry 0                          │
// │ - support: 4 bytes (uint32)      │
// │ - item_count: 2 bytes (uint16)   │
// │ - items: item_count times        │
// │   - length: 2 bytes (uint16)     │
// │   - bytes: length bytes          │
// ├──────────────────────────────────┤
// │ Entry 1 ...                      │
// └──────────────────────────────────┘
//
// Entries are sorted by canonical itemset key so equal results encode to
// identical bytes and therefore share a hash.
const (
	version    = 1
	headerSize = 8

	maxItemCount = math.MaxUint16
	maxItemLen   = math.MaxUint16
)

var (
	// ErrUnsupportedVersion is returned when decoding data from a newer encoder
	ErrUnsupportedVersion = errors.New("unsupported codec version")

	// ErrTruncated is returned when data ends before the header says it should
	ErrTruncated = errors.New("truncated data")

	// ErrEmptyItemset is returned for an entry without items
	ErrEmptyItemset = errors.New("empty itemset")
)

// Marshal serializes a result to the binary format
func Marshal(r itemset.Result) ([]byte, error) {
	keys := make([]string, 0, len(r))
	for key := range r {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	if uint64(len(keys)) > math.MaxUint32 {
		return nil, fmt.Errorf("too many patterns: %d", len(keys))
	}

	size := headerSize
	maxSize := 0
	for _, key := range keys {
		p := r[key]
		if p.Support < 0 || uint64(p.Support) > math.MaxUint32 {
			return nil, fmt.Errorf("support out of range for %s: %d", p.Items, p.Support)
		}
		if len(p.Items) == 0 {
			return nil, fmt.Errorf("%w: pattern %q", ErrEmptyItemset, key)
		}
		if len(p.Items) > maxItemCount {
			return nil, fmt.Errorf("too many items in %s: %d", p.Items, len(p.Items))
		}
		size += 6
		for _, item := range p.Items {
			if len(item) > maxItemLen {
				return nil, fmt.Errorf("item too long: %d bytes", len(item))
			}
			size += 2 + len(item)
		}
		maxSize = max(maxSize, len(p.Items))
	}

	buf := make([]byte, size)
	buf[0] = version
	buf[1] = 0 // flags
	binary.BigEndian.PutUint16(buf[2:4], uint16(maxSize))
	binary.BigEndian.PutUint32(buf[4:8], uint32(len(keys)))

	offset := headerSize
	for _, key := range keys {
		p := r[key]
		binary.BigEndian.PutUint32(buf[offset:offset+4], uint32(p.Support))
		binary.BigEndian.PutUint16(buf[offset+4:offset+6], uint16(len(p.Items)))
		offset += 6

		for _, item := range p.Items {
			binary.BigEndian.PutUint16(buf[offset:offset+2], uint16(len(item)))
			offset += 2
			offset += copy(buf[offset:], item)
		}
	}

	return buf, nil
}

// Unmarshal deserializes a result from the binary format
func Unmarshal(data []byte) (itemset.Result, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes, need header", ErrTruncated, len(data))
	}

	if data[0] != version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, data[0])
	}

	count := binary.BigEndian.Uint32(data[4:8])
	r := itemset.NewResult()

	offset := headerSize
	for i := uint32(0); i < count; i++ {
		if len(data) < offset+6 {
			return nil, fmt.Errorf("%w: entry %d header", ErrTruncated, i)
		}
		support := binary.BigEndian.Uint32(data[offset : offset+4])
		n := int(binary.BigEndian.Uint16(data[offset+4 : offset+6]))
		if n == 0 {
			return nil, fmt.Errorf("%w: entry %d", ErrEmptyItemset, i)
		}
		offset += 6

		items := make([]itemset.Item, n)
		for j := range items {
			if len(data) < offset+2 {
				return nil, fmt.Errorf("%w: entry %d item %d length", ErrTruncated, i, j)
			}
			l := int(binary.BigEndian.Uint16(data[offset : offset+2]))
			offset += 2
			if len(data) < offset+l {
				return nil, fmt.Errorf("%w: entry %d item %d", ErrTruncated, i, j)
			}
			items[j] = itemset.Item(data[offset : offset+l])
			offset += l
		}

		set, err := itemset.New(items...)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if err := r.Add(itemset.Pattern{Items: set, Support: int(support)}); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
	}

	if offset != len(data) {
		return nil, fmt.Errorf("%d trailing bytes after %d entries", len(data)-offset, count)
	}

	return r, nil
}

// Hash computes the BLAKE3 multihash of the encoded result
func Hash(r itemset.Result) (multihash.ResultHash, []byte, error) {
	data, err := Marshal(r)
	if err != nil {
		return nil, nil, err
	}
	h, err := multihash.Sum(data)
	if err != nil {
		return nil, nil, err
	}
	return h, data, nil
}
