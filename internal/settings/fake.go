package settings

import (
	"fmt"
	"maps"
)

// FakeStore is an in-memory Store for tests.
type FakeStore struct {
	Strings map[string]string
	Floats  map[string]float64

	// PutError, if set, is returned by every write and nothing is stored.
	PutError error

	// FailAfter, if positive, makes Apply fail once that many entries of a
	// batch have been staged. Nothing from the failed batch is stored.
	FailAfter int

	// Puts counts successful writes.
	Puts int
}

// NewFakeStore creates an empty FakeStore.
func NewFakeStore() *FakeStore {
	return &FakeStore{
		Strings: make(map[string]string),
		Floats:  make(map[string]float64),
	}
}

// GetString returns the stored string or def.
func (f *FakeStore) GetString(key, def string) string {
	if v, ok := f.Strings[key]; ok {
		return v
	}
	return def
}

// GetFloat returns the stored float or def.
func (f *FakeStore) GetFloat(key string, def float64) float64 {
	if v, ok := f.Floats[key]; ok {
		return v
	}
	return def
}

// PutString records the string.
func (f *FakeStore) PutString(key, value string) error {
	if f.PutError != nil {
		return f.PutError
	}
	f.Strings[key] = value
	f.Puts++
	return nil
}

// PutFloat records the float.
func (f *FakeStore) PutFloat(key string, value float64) error {
	if f.PutError != nil {
		return f.PutError
	}
	f.Floats[key] = value
	f.Puts++
	return nil
}

// Apply stages every entry and stores them only if none fails.
func (f *FakeStore) Apply(b Batch) error {
	if f.PutError != nil {
		return f.PutError
	}

	strs := make(map[string]string, len(f.Strings)+len(b.Strings))
	maps.Copy(strs, f.Strings)
	floats := make(map[string]float64, len(f.Floats)+len(b.Floats))
	maps.Copy(floats, f.Floats)

	staged := 0
	stage := func() error {
		staged++
		if f.FailAfter > 0 && staged >= f.FailAfter {
			return fmt.Errorf("fake store: write %d failed", staged)
		}
		return nil
	}
	for k, v := range b.Strings {
		if err := stage(); err != nil {
			return err
		}
		strs[k] = v
	}
	for k, v := range b.Floats {
		if err := stage(); err != nil {
			return err
		}
		floats[k] = v
	}

	f.Strings, f.Floats = strs, floats
	f.Puts += b.Len()
	return nil
}
