package channel

// Of binds a channel name to its payload type T.
// The zero value is not usable; create instances with New.
type Of[T any] struct {
	name Name
}

// New declares a typed channel. It panics if name is not a valid channel name,
// since channels are declared once at package initialization.
func New[T any](name Name) Of[T] {
	if !name.IsValid() {
		panic("channel: invalid channel name " + string(name))
	}
	return Of[T]{name: name}
}

// Name returns the channel name.
func (c Of[T]) Name() Name {
	return c.name
}

// String returns the channel name as a string.
func (c Of[T]) String() string {
	return string(c.name)
}

// Payload asserts that v carries this channel's payload type.
func (c Of[T]) Payload(v any) (T, bool) {
	p, ok := v.(T)
	return p, ok
}
