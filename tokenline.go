// Package tokenline extracts structured fields from JSON payloads and
// reports them over an interrupt-driven serial transport, without ever
// blocking the main execution loop on I/O.
//
// The module has two hard parts, each in its own package:
//
//   - jsontok: a zero-copy JSON tokenizer that scans a byte buffer in a
//     single pass and produces a flat array of typed spans, using no memory
//     beyond the caller-owned token array.
//   - uart: a byte-oriented transport driver whose explicit state machine
//     is shared between the main line of execution and an interrupt
//     handler, with hardware error classification and recovery.
//
// Around them sit the pipeline package (walks tokens and paces emission),
// the tick package (wraparound-correct millisecond timing), and the capture
// package (compressed session recording).
//
// # Basic Usage
//
// Tokenizing a payload with automatic sizing:
//
//	tokens, err := tokenline.Parse([]byte(`{"user":"johndoe","uid":1000}`))
//	if err != nil {
//	    return err
//	}
//	fmt.Println(tokens[0].Kind) // Object
//
// Running a full extraction cycle over a loopback transport:
//
//	drv, port, _ := tokenline.NewLoopback()
//	pl, _ := pipeline.New(drv)
//	pl.RegisterField("user", "User")
//	pl.SetSource(payload)
//	err := pl.Run(func() {
//	    if port.Pending() {
//	        drv.ServiceInterrupt()
//	    }
//	})
//
// This package provides convenience wrappers around the subpackages; use
// them directly for fine-grained control over token storage and port
// bindings.
package tokenline

import (
	"github.com/tokenline/tokenline/jsontok"
	"github.com/tokenline/tokenline/uart"
)

// Parse tokenizes data with an automatically sized token array: a counting
// pass determines the capacity, then a second pass fills the tokens.
//
// Callers that hold a fixed token array (the zero-allocation path) should
// use jsontok.Parser directly.
func Parse(data []byte, opts ...jsontok.Option) ([]jsontok.Token, error) {
	p := jsontok.NewParser(opts...)

	n, err := p.Parse(data, nil)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}

	tokens := make([]jsontok.Token, n)
	p.Reset()
	if _, err := p.Parse(data, tokens); err != nil {
		return nil, err
	}

	return tokens, nil
}

// NewLoopback creates an initialized driver over a simulated port that
// echoes every transmitted byte back into its receive queue. Useful for
// demos and integration tests that need both halves exercised without
// hardware.
func NewLoopback(opts ...uart.Option) (*uart.Driver, *uart.SimPort, error) {
	port := uart.NewLoopbackPort()

	drv, err := uart.NewDriver(port, opts...)
	if err != nil {
		return nil, nil, err
	}
	if err := drv.Init(); err != nil {
		return nil, nil, err
	}

	return drv, port, nil
}
