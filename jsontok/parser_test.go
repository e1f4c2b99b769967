package jsontok

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenline/tokenline/errs"
)

func parseAll(t *testing.T, src string, capacity int) ([]Token, int, error) {
	t.Helper()

	p := NewParser()
	tokens := make([]Token, capacity)
	n, err := p.Parse([]byte(src), tokens)

	return tokens, n, err
}

func TestParseEmptyObject(t *testing.T) {
	tokens, n, err := parseAll(t, "{}", 4)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	require.Equal(t, KindObject, tokens[0].Kind)
	require.Equal(t, int32(0), tokens[0].Start)
	require.Equal(t, int32(2), tokens[0].End)
	require.Equal(t, int32(0), tokens[0].Size)
}

func TestParseUserRecord(t *testing.T) {
	src := `{"user":"johndoe","admin":false,"uid":1000,"groups":["users","wheel"]}`
	tokens, n, err := parseAll(t, src, 16)
	require.NoError(t, err)
	require.Equal(t, 11, n)

	root := tokens[0]
	require.Equal(t, KindObject, root.Kind)
	require.Equal(t, int32(4), root.Size)
	require.Equal(t, int32(0), root.Start)
	require.Equal(t, int32(len(src)), root.End)

	// Root object is never left open.
	require.NotEqual(t, int32(spanUnset), root.End)

	b := []byte(src)

	require.True(t, tokens[1].Equal(b, "user"))
	require.Equal(t, KindString, tokens[2].Kind)
	require.Equal(t, "johndoe", string(tokens[2].Bytes(b)))

	require.True(t, tokens[3].Equal(b, "admin"))
	require.Equal(t, KindPrimitive, tokens[4].Kind)
	require.Equal(t, "false", string(tokens[4].Bytes(b)))

	require.True(t, tokens[5].Equal(b, "uid"))
	require.Equal(t, "1000", string(tokens[6].Bytes(b)))

	require.True(t, tokens[7].Equal(b, "groups"))
	groups := tokens[8]
	require.Equal(t, KindArray, groups.Kind)
	require.Equal(t, int32(2), groups.Size)
	require.Equal(t, "users", string(tokens[9].Bytes(b)))
	require.Equal(t, "wheel", string(tokens[10].Bytes(b)))
}

func TestParseWhitespaceAndNewlines(t *testing.T) {
	src := "{\"user\": \"johndoe\", \"admin\": false, \"uid\": 1000,\n  " +
		"\"groups\": [\"users\", \"wheel\", \"audio\", \"video\"]}"
	tokens, n, err := parseAll(t, src, 16)
	require.NoError(t, err)
	require.Equal(t, 13, n)
	require.Equal(t, int32(4), tokens[0].Size)
	require.Equal(t, int32(4), tokens[8].Size)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"missing closing brace", `{"user": "johndoe"`, errs.ErrPartialJSON},
		{"mismatched closer", `{"a":1]`, errs.ErrInvalidJSON},
		{"unmatched closer", `]`, errs.ErrInvalidJSON},
		{"unterminated string", `{"a":"b`, errs.ErrPartialJSON},
		{"bad escape", `{"a":"\x"}`, errs.ErrInvalidJSON},
		{"short unicode escape", `{"a":"\u12g4"}`, errs.ErrInvalidJSON},
		{"control byte in primitive", "{\"a\":1\x012}", errs.ErrInvalidJSON},
		{"nested unbalanced", `{"a":{"b":[1,2}`, errs.ErrInvalidJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := parseAll(t, tt.src, 16)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseValidEscapes(t *testing.T) {
	src := `{"a":"q\"u\\o\/t\b\f\r\n\te","u":"éé"}`
	tokens, n, err := parseAll(t, src, 8)
	require.NoError(t, err)
	require.Equal(t, 5, n)

	// Escapes are validated, never decoded: the span round-trips verbatim.
	b := []byte(src)
	require.Equal(t, `q\"u\\o\/t\b\f\r\n\te`, string(tokens[2].Bytes(b)))
	require.Equal(t, `éé`, string(tokens[4].Bytes(b)))
}

func TestParseTokensExhausted(t *testing.T) {
	src := `{"a":1,"b":2}`

	_, _, err := parseAll(t, src, 3)
	require.ErrorIs(t, err, errs.ErrTokensExhausted)

	// Growing the capacity and retrying from scratch succeeds.
	_, n, err := parseAll(t, src, 5)
	require.NoError(t, err)
	require.Equal(t, 5, n)
}

func TestParseDryRunCount(t *testing.T) {
	src := `{"user":"johndoe","groups":["users","wheel"]}`

	p := NewParser()
	n, err := p.Parse([]byte(src), nil)
	require.NoError(t, err)
	require.Equal(t, 7, n)

	p.Reset()
	tokens := make([]Token, n)
	got, err := p.Parse([]byte(src), tokens)
	require.NoError(t, err)
	require.Equal(t, n, got)
}

func TestParseIdempotent(t *testing.T) {
	src := []byte(`{"a":[1,{"b":"c"}],"d":null}`)

	p := NewParser()
	first := make([]Token, 16)
	n1, err := p.Parse(src, first)
	require.NoError(t, err)

	p.Reset()
	second := make([]Token, 16)
	n2, err := p.Parse(src, second)
	require.NoError(t, err)

	require.Equal(t, n1, n2)
	assert.Equal(t, first[:n1], second[:n2])
}

func TestParseChunkedReentry(t *testing.T) {
	full := []byte(`{"key": "value", "n": 42}`)
	tokens := make([]Token, 8)

	p := NewParser()

	// First chunk ends mid-document: parse reports incomplete input but
	// keeps its cursor, so feeding the extended buffer resumes the scan.
	_, err := p.Parse(full[:10], tokens)
	require.ErrorIs(t, err, errs.ErrPartialJSON)

	n, err := p.Parse(full, tokens)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, int32(2), tokens[0].Size)
	require.Equal(t, "value", string(tokens[2].Bytes(full)))
	require.Equal(t, "42", string(tokens[4].Bytes(full)))
}

func TestParseStopsAtNUL(t *testing.T) {
	// The receive path terminates lines with a NUL byte; the scan must not
	// run past it into stale buffer contents.
	src := []byte("{\"a\":1}\x00{\"junk\":")
	tokens, n, err := parseAll(t, string(src), 8)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, int32(7), tokens[0].End)
}

func TestParseTopLevelValues(t *testing.T) {
	t.Run("BareArray", func(t *testing.T) {
		tokens, n, err := parseAll(t, `[1,2,3]`, 8)
		require.NoError(t, err)
		require.Equal(t, 4, n)
		require.Equal(t, KindArray, tokens[0].Kind)
		require.Equal(t, int32(3), tokens[0].Size)
	})

	t.Run("BarePrimitive", func(t *testing.T) {
		tokens, n, err := parseAll(t, `true`, 2)
		require.NoError(t, err)
		require.Equal(t, 1, n)
		require.Equal(t, KindPrimitive, tokens[0].Kind)
		require.Equal(t, int32(0), tokens[0].Start)
		require.Equal(t, int32(4), tokens[0].End)
	})

	t.Run("DeepNesting", func(t *testing.T) {
		tokens, n, err := parseAll(t, `[[[[[[1]]]]]]`, 8)
		require.NoError(t, err)
		require.Equal(t, 7, n)
		for i := 0; i < 6; i++ {
			require.Equal(t, KindArray, tokens[i].Kind)
			require.Equal(t, int32(1), tokens[i].Size)
		}
	})
}

func TestParseStrict(t *testing.T) {
	t.Run("UnterminatedPrimitive", func(t *testing.T) {
		p := NewParser(WithStrict())
		_, err := p.Parse([]byte(`123`), make([]Token, 2))
		require.ErrorIs(t, err, errs.ErrPartialJSON)
	})

	t.Run("BareWordRejected", func(t *testing.T) {
		p := NewParser(WithStrict())
		_, err := p.Parse([]byte(`{"a": garbage}`), make([]Token, 4))
		require.ErrorIs(t, err, errs.ErrInvalidJSON)
	})

	t.Run("PrimitiveKeyRejected", func(t *testing.T) {
		p := NewParser(WithStrict())
		_, err := p.Parse([]byte(`{1:2}`), make([]Token, 4))
		require.ErrorIs(t, err, errs.ErrInvalidJSON)
	})

	t.Run("ValidStrictInput", func(t *testing.T) {
		p := NewParser(WithStrict())
		n, err := p.Parse([]byte(`{"a": [1, true, null]}`), make([]Token, 8))
		require.NoError(t, err)
		require.Equal(t, 6, n)
	})
}

func TestCode(t *testing.T) {
	require.Equal(t, int32(0), Code(nil))
	require.Equal(t, int32(-1), Code(errs.ErrInvalidJSON))
	require.Equal(t, int32(-2), Code(errs.ErrTokensExhausted))
	require.Equal(t, int32(-3), Code(errs.ErrPartialJSON))
}

func BenchmarkParse(b *testing.B) {
	src := []byte(`{"user":"johndoe","admin":false,"uid":1000,"groups":["users","wheel","audio","video"]}`)
	tokens := make([]Token, 16)
	p := NewParser()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.Reset()
		if _, err := p.Parse(src, tokens); err != nil {
			b.Fatal(err)
		}
	}
}
