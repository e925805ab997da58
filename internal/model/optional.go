package model

// Optional is a tri-state field: absent, or present with a value.
// The zero value is absent.
type Optional[T any] struct {
	value T
	set   bool
}

// Some returns a present Optional holding v.
func Some[T any](v T) Optional[T] { return Optional[T]{value: v, set: true} }

// IsSet reports whether the field was supplied.
func (o Optional[T]) IsSet() bool { return o.set }

// Get returns the value and whether it was supplied.
func (o Optional[T]) Get() (T, bool) { return o.value, o.set }

// Ptr returns a pointer to a copy of the value, or nil when absent.
func (o Optional[T]) Ptr() *T {
	if !o.set {
		return nil
	}
	v := o.value
	return &v
}
