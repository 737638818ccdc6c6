package model

import "encoding/json"

// Optional distinguishes "field not provided" from "field provided", including
// a provided nil for pointer types. Patches are built from Optionals so that
// unset fields never reach the store.
type Optional[T any] struct {
	value T
	set   bool
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

// Get returns the value and whether it was set.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}

func (o Optional[T]) IsSet() bool {
	return o.set
}

// UnmarshalJSON is only invoked for keys present in the payload, so a present
// key (even `null`) marks the field as set.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.set = true
	return json.Unmarshal(data, &o.value)
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.set {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

// Patch is a sparse update for records of type T.
type Patch[T any] interface {
	// Columns returns only the set fields keyed by column name.
	Columns() map[string]any
	// ApplyTo returns a copy of rec with the set fields merged in.
	ApplyTo(rec T) T
}

func setColumn[T any](cols map[string]any, name string, o Optional[T]) {
	if v, ok := o.Get(); ok {
		cols[name] = v
	}
}

func applyField[T any](dst *T, o Optional[T]) {
	if v, ok := o.Get(); ok {
		*dst = v
	}
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
