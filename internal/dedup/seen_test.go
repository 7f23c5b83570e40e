package dedup

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

func TestIsNewAndRecord(t *testing.T) {
	seen := NewSeenSet()

	if !seen.IsNew("Reuters", "item-1") {
		t.Fatal("Expected unseen key to be new")
	}
	// IsNew alone must not consume the key
	if !seen.IsNew("Reuters", "item-1") {
		t.Fatal("IsNew should not record the key")
	}

	seen.Record("Reuters", "item-1")
	if seen.IsNew("Reuters", "item-1") {
		t.Error("Expected recorded key to no longer be new")
	}

	seen.Record("Reuters", "item-1")
	if seen.Len() != 1 {
		t.Errorf("Expected Record to be idempotent, got %d keys", seen.Len())
	}
}

func TestKeysAreScopedBySource(t *testing.T) {
	seen := NewSeenSet()

	if !seen.Accept("Reuters", "42") {
		t.Fatal("Expected first accept to succeed")
	}
	if !seen.Accept("Financial Times", "42") {
		t.Error("Same identity from another source should be new")
	}
	if seen.Accept("Reuters", "42") {
		t.Error("Expected repeated key to be rejected")
	}
	if seen.Len() != 2 {
		t.Errorf("Expected 2 keys, got %d", seen.Len())
	}
}

func TestAcceptNoSeparatorCollision(t *testing.T) {
	seen := NewSeenSet()

	seen.Accept("a:b", "c")
	if !seen.Accept("a", "b:c") {
		t.Error("Composite keys must not collide when parts contain separators")
	}
}

func TestAcceptConcurrent(t *testing.T) {
	seen := NewSeenSet()

	const goroutines = 32
	const keys = 200

	var accepted atomic.Int64
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := 0; k < keys; k++ {
				if seen.Accept("src", fmt.Sprintf("item-%d", k)) {
					accepted.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	if accepted.Load() != keys {
		t.Errorf("Expected exactly %d accepts, got %d", keys, accepted.Load())
	}
	if seen.Len() != keys {
		t.Errorf("Expected %d keys, got %d", keys, seen.Len())
	}
	for k := 0; k < keys; k++ {
		if seen.IsNew("src", fmt.Sprintf("item-%d", k)) {
			t.Fatalf("Key item-%d was lost", k)
		}
	}
}
