package jsontok

// Kind identifies the syntactic class of a token.
type Kind uint8

const (
	KindUndefined Kind = iota // zero value, never produced by a successful parse
	KindObject                // {...}
	KindArray                 // [...]
	KindString                // "..." (span excludes the quotes)
	KindPrimitive             // number, true, false, null
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindObject:
		return "Object"
	case KindArray:
		return "Array"
	case KindString:
		return "String"
	case KindPrimitive:
		return "Primitive"
	default:
		return "Undefined"
	}
}

// spanUnset marks a boundary that has not been determined yet. A container
// token keeps End == spanUnset until its closing delimiter is found.
const spanUnset = -1

// Token is a typed byte-offset span identifying a JSON syntactic element.
//
// Start and End are offsets into the source buffer, End exclusive. Size
// counts immediate children: key/value entries for an object (each key
// counts once, its value is the key's child), elements for an array.
//
// A Token does not own the underlying bytes. The source buffer must outlive
// all tokens derived from it.
type Token struct {
	Kind  Kind
	Start int32
	End   int32
	Size  int32
}

// Len returns the span length in bytes, or 0 for an unterminated token.
func (t Token) Len() int {
	if t.End == spanUnset || t.Start == spanUnset {
		return 0
	}

	return int(t.End - t.Start)
}

// Bytes returns the token's span within src without copying. For a string
// token the surrounding quotes are excluded and escape sequences are left
// encoded.
func (t Token) Bytes(src []byte) []byte {
	if t.End == spanUnset || t.Start == spanUnset {
		return nil
	}

	return src[t.Start:t.End]
}

// Equal reports whether the token is a string token whose span within src
// matches s byte for byte. It is the zero-copy way to test object keys.
func (t Token) Equal(src []byte, s string) bool {
	if t.Kind != KindString || t.Len() != len(s) {
		return false
	}

	return string(src[t.Start:t.End]) == s
}
