package datalist

import (
	"errors"
	"fmt"
)

var (
	// ErrIndexOutOfRange is returned by Get for an index outside [0, Len()).
	ErrIndexOutOfRange = errors.New("datalist: index out of range")
	// ErrCorruptRecord is returned when a stored byte range fails to decode.
	ErrCorruptRecord = errors.New("datalist: corrupt record")
)

// Option configures a List.
type Option func(*options)

type options struct {
	serialize bool
	deepCopy  bool
}

// WithoutSerialization keeps records as the original slice.
func WithoutSerialization() Option {
	return func(o *options) { o.serialize = false }
}

// WithDeepCopy makes Get return a copy when serialization is disabled. It has
// no effect in serializing mode, where every Get already decodes a new value.
func WithDeepCopy() Option {
	return func(o *options) { o.deepCopy = true }
}

// List is an immutable indexed collection of records.
type List[T any] struct {
	codec   Codec[T]
	buf     []byte
	offsets []int64
	items   []T
	mode    options
}

// New builds a List from items. The input slice is not retained in
// serializing mode.
func New[T any](items []T, codec Codec[T], opts ...Option) (*List[T], error) {
	if codec == nil {
		codec = JSONCodec[T]{}
	}
	mode := options{serialize: true}
	for _, opt := range opts {
		opt(&mode)
	}

	l := &List[T]{codec: codec, mode: mode}
	if !mode.serialize {
		l.items = items
		return l, nil
	}

	l.offsets = make([]int64, len(items))
	encoded := make([][]byte, len(items))
	var total int64
	for i, item := range items {
		data, err := codec.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("encode record %d: %w", i, err)
		}
		encoded[i] = data
		total += int64(len(data))
		l.offsets[i] = total
	}
	l.buf = make([]byte, 0, total)
	for _, data := range encoded {
		l.buf = append(l.buf, data...)
	}
	return l, nil
}

// Len reports the number of records.
func (l *List[T]) Len() int {
	if l.mode.serialize {
		return len(l.offsets)
	}
	return len(l.items)
}

// Size reports the bytes held by the serialized buffer. It is zero when
// serialization is disabled.
func (l *List[T]) Size() int {
	return len(l.buf)
}

// Serialized reports whether records are stored in the packed buffer.
func (l *List[T]) Serialized() bool {
	return l.mode.serialize
}

// Get returns record i.
func (l *List[T]) Get(i int) (T, error) {
	var zero T
	if i < 0 || i >= l.Len() {
		return zero, fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, i, l.Len())
	}

	if !l.mode.serialize {
		if !l.mode.deepCopy {
			return l.items[i], nil
		}
		data, err := l.codec.Marshal(l.items[i])
		if err != nil {
			return zero, fmt.Errorf("copy record %d: %w", i, err)
		}
		return l.decode(i, data)
	}

	var start int64
	if i > 0 {
		start = l.offsets[i-1]
	}
	return l.decode(i, l.buf[start:l.offsets[i]])
}

func (l *List[T]) decode(i int, data []byte) (T, error) {
	item, err := l.codec.Unmarshal(data)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%w %d: %v", ErrCorruptRecord, i, err)
	}
	return item, nil
}

// All decodes every record in order.
func (l *List[T]) All() ([]T, error) {
	out := make([]T, 0, l.Len())
	for i := range l.Len() {
		item, err := l.Get(i)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}
