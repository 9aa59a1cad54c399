package codec

import (
	"bytes"
	"errors"
	"testing"

	"github.com/shruggr/fpgrowth/itemset"
)

func sampleResult(t *testing.T) itemset.Result {
	t.Helper()
	r := itemset.NewResult()
	patterns := []itemset.Pattern{
		{Items: itemset.MustNew("b"), Support: 5},
		{Items: itemset.MustNew("a"), Support: 3},
		{Items: itemset.MustNew("a", "b"), Support: 3},
		{Items: itemset.MustNew("bread", "milk", "eggs"), Support: 2},
		{Items: itemset.MustNew("ü"), Support: 1},
	}
	for _, p := range patterns {
		if err := r.Add(p); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}
	return r
}

func TestMarshalUnmarshal(t *testing.T) {
	r := sampleResult(t)

	data, err := Marshal(r)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	t.Logf("Marshaled size: %d bytes", len(data))

	r2, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if !r.Equal(r2) {
		t.Errorf("Round trip changed result: got %v, want %v", r2.Sorted(), r.Sorted())
	}
}

func TestMarshalDeterministic(t *testing.T) {
	first, err := Marshal(sampleResult(t))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	for i := 0; i < 10; i++ {
		again, err := Marshal(sampleResult(t))
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatal("Marshal output depends on map iteration order")
		}
	}

	h1, _, err := Hash(sampleResult(t))
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if err := h1.Verify(first); err != nil {
		t.Errorf("Hash does not match marshaled bytes: %v", err)
	}
}

func TestEmptyResult(t *testing.T) {
	data, err := Marshal(itemset.NewResult())
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if len(data) != headerSize {
		t.Errorf("Expected %d bytes for empty result, got %d", headerSize, len(data))
	}

	r, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if len(r) != 0 {
		t.Errorf("Expected empty result, got %d patterns", len(r))
	}
}

func TestUnmarshalErrors(t *testing.T) {
	data, err := Marshal(sampleResult(t))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	if _, err := Unmarshal(data[:4]); !errors.Is(err, ErrTruncated) {
		t.Errorf("Expected ErrTruncated for short header, got %v", err)
	}

	if _, err := Unmarshal(data[:len(data)-1]); !errors.Is(err, ErrTruncated) {
		t.Errorf("Expected ErrTruncated for cut entry, got %v", err)
	}

	bad := append([]byte{}, data...)
	bad[0] = 9
	if _, err := Unmarshal(bad); !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("Expected ErrUnsupportedVersion, got %v", err)
	}

	if _, err := Unmarshal(append(append([]byte{}, data...), 0)); err == nil {
		t.Error("Expected error for trailing bytes")
	}

	// One entry with support 1 and no items
	empty := []byte{version, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0}
	if _, err := Unmarshal(empty); !errors.Is(err, ErrEmptyItemset) {
		t.Errorf("Expected ErrEmptyItemset for zero item count, got %v", err)
	}
}

func TestMarshalRejectsEmptyItemset(t *testing.T) {
	r := itemset.NewResult()
	r[""] = itemset.Pattern{Support: 1}

	if _, err := Marshal(r); !errors.Is(err, ErrEmptyItemset) {
		t.Errorf("Expected ErrEmptyItemset, got %v", err)
	}
}

func TestUnmarshalRejectsDuplicateItems(t *testing.T) {
	r := itemset.NewResult()
	r["x"] = itemset.Pattern{Items: itemset.Itemset{"a", "a"}, Support: 1}

	data, err := Marshal(r)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	if _, err := Unmarshal(data); !errors.Is(err, itemset.ErrDuplicateItem) {
		t.Errorf("Expected ErrDuplicateItem, got %v", err)
	}
}
