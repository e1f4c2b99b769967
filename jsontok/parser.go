package jsontok

import (
	"errors"
	"fmt"

	"github.com/tokenline/tokenline/errs"
	"github.com/tokenline/tokenline/internal/options"
)

// Option configures a Parser.
type Option = options.Option[*Parser]

// WithStrict enables strict scanning: primitives must be terminated by a
// delimiter (otherwise the parse fails with errs.ErrPartialJSON instead of
// accepting a buffer-final primitive), primitives are restricted to numbers,
// booleans and null, and neither primitives nor containers may appear in an
// object key position.
func WithStrict() Option {
	return options.NoError(func(p *Parser) {
		p.strict = true
	})
}

// Parser holds the scan cursor for a single parse, possibly spread over
// several Parse calls when input arrives in chunks.
//
// A Parser is not safe for concurrent use. Create one per parse, or call
// Reset between independent parses.
type Parser struct {
	pos   int // current scan offset into the source buffer
	next  int // next free slot in the token array
	super int // token index whose Size absorbs new children, -1 at top level

	// Open-container stack: indices of Object/Array tokens whose closing
	// delimiter has not been seen yet, innermost last.
	stack []int32

	strict bool
}

// NewParser creates a parser positioned at the start of the input.
func NewParser(opts ...Option) *Parser {
	p := &Parser{super: -1}

	// All parser options are infallible.
	_ = options.Apply(p, opts...)

	return p
}

// Reset rewinds the parser for a fresh parse, keeping its configuration.
func (p *Parser) Reset() {
	p.pos = 0
	p.next = 0
	p.super = -1
	p.stack = p.stack[:0]
}

// Parse scans data left to right and fills tokens with the spans it finds,
// returning the total number of tokens produced so far (including tokens
// from earlier calls on the same parser, supporting chunked input).
//
// If tokens is nil the scan only counts: no spans are recorded and no
// container bookkeeping or balance validation is performed. This is the
// pre-sizing mode.
//
// A NUL byte terminates the input early, matching the line terminator
// convention of the uart receive path.
//
// On failure the returned error matches (via errors.Is) exactly one of
// errs.ErrInvalidJSON, errs.ErrTokensExhausted or errs.ErrPartialJSON; see
// Code for the numeric equivalents. A failed attempt is terminal except for
// errs.ErrPartialJSON, which may be retried after appending input, and
// errs.ErrTokensExhausted, which may be retried from scratch with a larger
// token array.
func (p *Parser) Parse(data []byte, tokens []Token) (int, error) {
	count := p.next

	for ; p.pos < len(data) && data[p.pos] != 0; p.pos++ {
		c := data[p.pos]

		switch c {
		case '{', '[':
			count++
			if tokens == nil {
				continue
			}

			tok := p.allocToken(tokens)
			if tok == nil {
				return 0, fmt.Errorf("%w: at offset %d", errs.ErrTokensExhausted, p.pos)
			}

			if p.super != -1 {
				parent := &tokens[p.super]
				if p.strict && parent.Kind == KindObject {
					return 0, fmt.Errorf("%w: container in key position at offset %d", errs.ErrInvalidJSON, p.pos)
				}
				parent.Size++
			}

			if c == '{' {
				tok.Kind = KindObject
			} else {
				tok.Kind = KindArray
			}
			tok.Start = int32(p.pos)
			p.super = p.next - 1
			p.stack = append(p.stack, int32(p.next-1))

		case '}', ']':
			if tokens == nil {
				continue
			}

			want := KindObject
			if c == ']' {
				want = KindArray
			}

			if len(p.stack) == 0 {
				return 0, fmt.Errorf("%w: unmatched %q at offset %d", errs.ErrInvalidJSON, c, p.pos)
			}

			tok := &tokens[p.stack[len(p.stack)-1]]
			if tok.Kind != want {
				return 0, fmt.Errorf("%w: %q closes %s opened at offset %d", errs.ErrInvalidJSON, c, tok.Kind, tok.Start)
			}
			tok.End = int32(p.pos + 1)

			p.stack = p.stack[:len(p.stack)-1]
			if len(p.stack) > 0 {
				p.super = int(p.stack[len(p.stack)-1])
			} else {
				p.super = -1
			}

		case '"':
			if err := p.scanString(data, tokens); err != nil {
				return 0, err
			}

			count++
			if p.super != -1 && tokens != nil {
				tokens[p.super].Size++
			}

		case ' ', '\t', '\r', '\n':
			// insignificant whitespace

		case ':':
			// Bind the value slot to the key just produced so that commas
			// inside a scalar value pop back to the enclosing object.
			p.super = p.next - 1

		case ',':
			if tokens != nil && p.super != -1 &&
				tokens[p.super].Kind != KindArray && tokens[p.super].Kind != KindObject {
				if len(p.stack) > 0 {
					p.super = int(p.stack[len(p.stack)-1])
				}
			}

		default:
			if p.strict {
				if !primitiveStart(c) {
					return 0, fmt.Errorf("%w: unexpected byte %q at offset %d", errs.ErrInvalidJSON, c, p.pos)
				}
				if tokens != nil && p.super != -1 {
					parent := &tokens[p.super]
					if parent.Kind == KindObject || (parent.Kind == KindString && parent.Size != 0) {
						return 0, fmt.Errorf("%w: primitive in key position at offset %d", errs.ErrInvalidJSON, p.pos)
					}
				}
			}

			if err := p.scanPrimitive(data, tokens); err != nil {
				return 0, err
			}

			count++
			if p.super != -1 && tokens != nil {
				tokens[p.super].Size++
			}
		}
	}

	if tokens != nil && len(p.stack) > 0 {
		return 0, fmt.Errorf("%w: %d unterminated container(s)", errs.ErrPartialJSON, len(p.stack))
	}

	return count, nil
}

// scanString validates a string token starting at the opening quote. On
// success the cursor rests on the closing quote. Escape sequences are
// checked for well-formedness only, never decoded.
func (p *Parser) scanString(data []byte, tokens []Token) error {
	start := p.pos
	p.pos++ // opening quote

	for ; p.pos < len(data) && data[p.pos] != 0; p.pos++ {
		c := data[p.pos]

		if c == '"' {
			if tokens == nil {
				return nil
			}

			tok := p.allocToken(tokens)
			if tok == nil {
				p.pos = start
				return fmt.Errorf("%w: at offset %d", errs.ErrTokensExhausted, start)
			}

			tok.Kind = KindString
			tok.Start = int32(start + 1)
			tok.End = int32(p.pos)

			return nil
		}

		if c == '\\' && p.pos+1 < len(data) {
			p.pos++
			esc := data[p.pos]

			switch esc {
			case '"', '/', '\\', 'b', 'f', 'r', 'n', 't':
				// canonical single-character escapes

			case 'u':
				p.pos++
				for i := 0; i < 4 && p.pos < len(data) && data[p.pos] != 0; i++ {
					if !isHexDigit(data[p.pos]) {
						p.pos = start
						return fmt.Errorf("%w: bad unicode escape at offset %d", errs.ErrInvalidJSON, start)
					}
					p.pos++
				}
				p.pos--

			default:
				p.pos = start
				return fmt.Errorf("%w: bad escape %q", errs.ErrInvalidJSON, esc)
			}
		}
	}

	p.pos = start

	return fmt.Errorf("%w: unterminated string at offset %d", errs.ErrPartialJSON, start)
}

// scanPrimitive consumes a primitive token up to its delimiter. On success
// the cursor rests on the last byte of the primitive.
func (p *Parser) scanPrimitive(data []byte, tokens []Token) error {
	start := p.pos
	found := false

	for ; p.pos < len(data) && data[p.pos] != 0; p.pos++ {
		c := data[p.pos]

		if isPrimitiveDelim(c, p.strict) {
			found = true
			break
		}

		if c < asciiPrintableMin || c >= asciiPrintableMax {
			p.pos = start
			return fmt.Errorf("%w: non-printable byte 0x%02x in primitive", errs.ErrInvalidJSON, c)
		}
	}

	if p.strict && !found {
		p.pos = start
		return fmt.Errorf("%w: unterminated primitive at offset %d", errs.ErrPartialJSON, start)
	}

	if tokens == nil {
		p.pos--
		return nil
	}

	tok := p.allocToken(tokens)
	if tok == nil {
		p.pos = start
		return fmt.Errorf("%w: at offset %d", errs.ErrTokensExhausted, start)
	}

	tok.Kind = KindPrimitive
	tok.Start = int32(start)
	tok.End = int32(p.pos)
	p.pos--

	return nil
}

// allocToken claims the next free slot, or nil when the array is exhausted.
func (p *Parser) allocToken(tokens []Token) *Token {
	if p.next >= len(tokens) {
		return nil
	}

	tok := &tokens[p.next]
	p.next++
	tok.Kind = KindUndefined
	tok.Start = spanUnset
	tok.End = spanUnset
	tok.Size = 0

	return tok
}

const (
	asciiPrintableMin = 32
	asciiPrintableMax = 127
)

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'A' && c <= 'F') || (c >= 'a' && c <= 'f')
}

// isPrimitiveDelim reports whether c terminates a primitive. A colon counts
// only in non-strict mode, where bare words may appear in key position.
func isPrimitiveDelim(c byte, strict bool) bool {
	switch c {
	case '\t', '\r', '\n', ' ', ',', ']', '}':
		return true
	case ':':
		return !strict
	default:
		return false
	}
}

// primitiveStart reports whether c may begin a primitive in strict mode.
func primitiveStart(c byte) bool {
	return c == '-' || (c >= '0' && c <= '9') || c == 't' || c == 'f' || c == 'n'
}

// Code converts a Parse result error to the classic numeric code used by
// callers that report parse failures over the wire: 0 for success, -1 for
// invalid syntax, -2 for token exhaustion, -3 for incomplete input.
func Code(err error) int32 {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errs.ErrTokensExhausted):
		return -2
	case errors.Is(err, errs.ErrPartialJSON):
		return -3
	default:
		return -1
	}
}
