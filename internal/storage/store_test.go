package storage_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"backstage/internal/storage"
)

type document struct {
	Foo int `json:"foo"`
}

// countingFS wraps OSFS and counts write calls.
type countingFS struct {
	real   storage.OSFS
	mu     sync.Mutex
	reads  int
	writes int
}

func (c *countingFS) ReadFile(path string) ([]byte, error) {
	c.mu.Lock()
	c.reads++
	c.mu.Unlock()
	return c.real.ReadFile(path)
}

func (c *countingFS) WriteFile(path string, data []byte) error {
	c.mu.Lock()
	c.writes++
	c.mu.Unlock()
	return c.real.WriteFile(path, data)
}

func (c *countingFS) writeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes
}

func tmpJSONPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.json")
}

func TestPersistence(t *testing.T) {
	path := tmpJSONPath(t)
	store, err := storage.Open(document{}, path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}

	guard := store.Acquire()
	guard.Doc().Foo = 42
	if err := guard.Release(); err != nil {
		t.Fatalf("Release returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read persisted file: %v", err)
	}
	var loaded document
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("parse persisted file: %v", err)
	}
	if loaded.Foo != 42 {
		t.Fatalf("persisted foo = %d, want 42", loaded.Foo)
	}
}

func TestLoadExisting(t *testing.T) {
	path := tmpJSONPath(t)
	if err := os.WriteFile(path, []byte(`{"foo": 43}`), 0o644); err != nil {
		t.Fatal(err)
	}

	store, err := storage.Open(document{Foo: 42}, path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	store.View(func(doc *document) {
		if doc.Foo != 43 {
			t.Fatalf("loaded foo = %d, want 43", doc.Foo)
		}
	})
}

func TestDefaultOnDeserializeError(t *testing.T) {
	path := tmpJSONPath(t)
	if err := os.WriteFile(path, []byte(`{"foo": `), 0o644); err != nil {
		t.Fatal(err)
	}

	store, err := storage.Open(document{Foo: 42}, path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	store.View(func(doc *document) {
		if doc.Foo != 42 {
			t.Fatalf("loaded foo = %d, want default 42", doc.Foo)
		}
	})

	// The corrupt file must have been normalized to the default.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var onDisk document
	if err := json.Unmarshal(data, &onDisk); err != nil {
		t.Fatalf("file was not normalized: %v", err)
	}
	if onDisk.Foo != 42 {
		t.Fatalf("on-disk foo = %d, want 42", onDisk.Foo)
	}
}

type failingCodec struct{}

func (failingCodec) Encode(document) ([]byte, error) { return json.Marshal(document{}) }

func (failingCodec) Decode([]byte, *document) error { return errors.New("codec bug") }

func TestUnknownDeserializeErrorIsFatal(t *testing.T) {
	path := tmpJSONPath(t)
	if err := os.WriteFile(path, []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := storage.Open(document{}, path, storage.WithCodec[document](failingCodec{}))
	if err == nil {
		t.Fatal("expected Open to propagate the codec error")
	}
}

func TestValidator(t *testing.T) {
	for _, tc := range []struct {
		name  string
		valid bool
		want  int
	}{
		{"accepted", true, 43},
		{"rejected", false, 42},
	} {
		t.Run(tc.name, func(t *testing.T) {
			path := tmpJSONPath(t)
			if err := os.WriteFile(path, []byte(`{"foo": 43}`), 0o644); err != nil {
				t.Fatal(err)
			}

			store, err := storage.Open(document{Foo: 42}, path,
				storage.WithValidator(func(doc document) bool {
					if doc.Foo != 43 {
						t.Fatalf("validator saw foo = %d, want on-disk 43", doc.Foo)
					}
					return tc.valid
				}))
			if err != nil {
				t.Fatalf("Open returned error: %v", err)
			}
			store.View(func(doc *document) {
				if doc.Foo != tc.want {
					t.Fatalf("loaded foo = %d, want %d", doc.Foo, tc.want)
				}
			})
		})
	}
}

func TestSkipIdenticalWrite(t *testing.T) {
	fsys := &countingFS{}
	path := tmpJSONPath(t)
	store, err := storage.Open(document{}, path, storage.WithFS[document](fsys))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}

	guard := store.Acquire()
	guard.Doc().Foo = 42
	if err := guard.Release(); err != nil {
		t.Fatal(err)
	}
	writesAfterChange := fsys.writeCount()

	// Releasing again with unchanged content must not write.
	guard = store.Acquire()
	if err := guard.Release(); err != nil {
		t.Fatal(err)
	}
	if got := fsys.writeCount(); got != writesAfterChange {
		t.Fatalf("write count = %d after no-op release, want %d", got, writesAfterChange)
	}
}

func TestReadOnlyGuardSuppressesWrite(t *testing.T) {
	fsys := &countingFS{}
	path := tmpJSONPath(t)
	store, err := storage.Open(document{}, path, storage.WithFS[document](fsys))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	before := fsys.writeCount()

	guard := store.AcquireRead()
	guard.Doc().Foo = 99 // mutation in memory only
	if err := guard.Release(); err != nil {
		t.Fatal(err)
	}

	if got := fsys.writeCount(); got != before {
		t.Fatalf("read-only release caused %d writes", got-before)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var onDisk document
	if err := json.Unmarshal(data, &onDisk); err != nil {
		t.Fatal(err)
	}
	if onDisk.Foo != 0 {
		t.Fatalf("on-disk foo = %d, want untouched 0", onDisk.Foo)
	}
}

func TestMidScopeSave(t *testing.T) {
	path := tmpJSONPath(t)
	store, err := storage.Open(document{}, path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}

	guard := store.Acquire()
	guard.Doc().Foo = 7
	if err := guard.Save(); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	// Flushed before release.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var onDisk document
	if err := json.Unmarshal(data, &onDisk); err != nil {
		t.Fatal(err)
	}
	if onDisk.Foo != 7 {
		t.Fatalf("on-disk foo = %d, want 7", onDisk.Foo)
	}
	if err := guard.Release(); err != nil {
		t.Fatal(err)
	}
}

func TestExclusiveAccess(t *testing.T) {
	const iterations = 1000
	path := tmpJSONPath(t)
	store, err := storage.Open(document{}, path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}

	var wg sync.WaitGroup
	for g := 0; g < 2; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := 0; n < iterations; n++ {
				guard := store.AcquireRead()
				guard.Doc().Foo++
				guard.Release()
			}
		}()
	}
	wg.Wait()

	store.View(func(doc *document) {
		if doc.Foo != 2*iterations {
			t.Fatalf("counter = %d, want %d", doc.Foo, 2*iterations)
		}
	})
}

func TestReleaseIsIdempotent(t *testing.T) {
	store, err := storage.Open(document{}, tmpJSONPath(t))
	if err != nil {
		t.Fatal(err)
	}
	guard := store.Acquire()
	if err := guard.Release(); err != nil {
		t.Fatal(err)
	}
	if err := guard.Release(); err != nil {
		t.Fatal(err)
	}
	// Store must still be acquirable after the double release.
	guard = store.Acquire()
	if err := guard.Release(); err != nil {
		t.Fatal(err)
	}
}

func TestMapSerializationIsDeterministic(t *testing.T) {
	fsys := &countingFS{}
	path := tmpJSONPath(t)
	store, err := storage.Open(map[string]int{}, path, storage.WithFS[map[string]int](fsys))
	if err != nil {
		t.Fatal(err)
	}

	err = store.Update(func(doc *map[string]int) error {
		(*doc)["b"] = 2
		(*doc)["a"] = 1
		(*doc)["c"] = 3
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	writesAfterChange := fsys.writeCount()

	// Re-inserting the same logical content in a different order must not
	// produce different bytes.
	err = store.Update(func(doc *map[string]int) error {
		*doc = map[string]int{"c": 3, "a": 1, "b": 2}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := fsys.writeCount(); got != writesAfterChange {
		t.Fatalf("logically identical content caused a write (count %d -> %d)", writesAfterChange, got)
	}
}
