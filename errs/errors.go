// Package errs defines the sentinel error values shared across tokenline
// packages.
//
// Callers should match errors with errors.Is since call sites wrap these
// sentinels with additional context via fmt.Errorf("%w: ...").
package errs

import "errors"

// Tokenizer errors. A failed parse attempt is terminal: the caller must
// discard the parser and either grow the token capacity (ErrTokensExhausted)
// or fix / re-supply the input (ErrInvalidJSON, ErrPartialJSON).
var (
	// ErrInvalidJSON indicates malformed JSON syntax: a mismatched closing
	// delimiter, a bad escape sequence, or a non-printable byte inside a
	// primitive.
	ErrInvalidJSON = errors.New("invalid JSON syntax")

	// ErrTokensExhausted indicates the caller-supplied token array is full.
	// Recoverable by growing the capacity and re-parsing from scratch.
	ErrTokensExhausted = errors.New("token capacity exhausted")

	// ErrPartialJSON indicates the input ended before the document was
	// complete (unbalanced container or truncated string). Recoverable by
	// feeding more bytes and re-invoking the same parser.
	ErrPartialJSON = errors.New("incomplete JSON input")
)

// Transport rejection errors. These are local and synchronous; the caller
// retries later once the respective half of the driver returns to idle.
var (
	// ErrNilBuffer indicates Send was called with a nil source buffer.
	ErrNilBuffer = errors.New("nil transmit buffer")

	// ErrTxBusy indicates a transmission is already in flight.
	ErrTxBusy = errors.New("transmitter busy")

	// ErrRxBusy indicates a reception is already in flight.
	ErrRxBusy = errors.New("receiver busy")

	// ErrHardwareUnavailable indicates the underlying port failed to
	// initialize.
	ErrHardwareUnavailable = errors.New("hardware unavailable")
)

// Capture errors.
var (
	// ErrUnknownCodec indicates an unrecognized capture codec type.
	ErrUnknownCodec = errors.New("unknown capture codec")

	// ErrCorruptCapture indicates a capture stream that cannot be replayed.
	ErrCorruptCapture = errors.New("corrupt capture stream")
)
