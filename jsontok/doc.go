// Package jsontok implements a zero-copy, zero-allocation JSON tokenizer.
//
// The tokenizer scans a byte buffer left to right in a single pass and
// produces a flat array of typed spans (tokens) pointing back into the
// source. It never copies string data, never decodes escape sequences, and
// never allocates: the caller owns the token array and the parser writes
// only into the slots it was given. Passing a nil token slice runs the scan
// in counting mode, which is useful for pre-sizing:
//
//	p := jsontok.NewParser()
//	n, err := p.Parse(data, nil) // dry run, counts tokens
//	if err != nil { ... }
//	tokens := make([]jsontok.Token, n)
//	p.Reset()
//	n, err = p.Parse(data, tokens)
//
// Tokens are borrowed views: the source buffer must outlive every token
// derived from it.
//
// The parser is resumable. When Parse returns errs.ErrPartialJSON the
// internal cursor is preserved; appending more bytes to the buffer and
// calling Parse again continues where the previous call stopped, and the
// returned count includes tokens produced by earlier calls.
//
// The tokenizer is not safe for concurrent use and must not be invoked from
// an interrupt/dispatch context.
package jsontok
