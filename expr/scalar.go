package expr

import "strconv"

// ScalarKind identifies the type of a literal value.
type ScalarKind int

const (
	KindInteger ScalarKind = iota // 32-bit signed integer
	KindLong                      // 64-bit signed integer
	KindString                    // UTF-8 string
)

func (k ScalarKind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindLong:
		return "long"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// Scalar is a typed literal value embeddable in an expression.
// Implementations are immutable value types and compare by value,
// so they can be used directly as map keys.
type Scalar interface {
	// Kind returns the scalar's type tag.
	Kind() ScalarKind

	// String renders the value for display: strings single-quoted,
	// numerics bare.
	String() string

	scalarMarker()
}

// Integer is a 32-bit signed integer literal.
type Integer int32

// Long is a 64-bit signed integer literal.
type Long int64

// String is a UTF-8 string literal.
type String string

func (Integer) Kind() ScalarKind { return KindInteger }
func (Long) Kind() ScalarKind    { return KindLong }
func (String) Kind() ScalarKind  { return KindString }

func (v Integer) String() string { return strconv.FormatInt(int64(v), 10) }
func (v Long) String() string    { return strconv.FormatInt(int64(v), 10) }
func (v String) String() string  { return "'" + string(v) + "'" }

func (Integer) scalarMarker() {}
func (Long) scalarMarker()    {}
func (String) scalarMarker()  {}
