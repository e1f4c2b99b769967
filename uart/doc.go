// Package uart implements an interrupt-driven, byte-oriented serial
// transport with an explicit state machine shared between the main line of
// execution and an interrupt context.
//
// The Driver never blocks: Send and Receive arm a transfer context and
// return immediately, rejecting the call if the respective half is already
// busy. Actual byte movement happens one byte at a time inside
// ServiceInterrupt, which the interrupt dispatcher invokes whenever the
// underlying Port signals transmit-ready or receive-ready. The transmit and
// receive halves are fully independent: each has its own Idle/Busy/Error
// state and its own context.
//
// Hardware access goes through the Port interface, which abstracts the
// peripheral's status flags, data register and interrupt-source enables.
// SimPort provides a scripted in-memory implementation for tests and
// loopback demos; binding a real peripheral means implementing Port over
// its registers.
//
// Concurrency model: exactly one main goroutine calls the entry points
// (Send, Receive, ResetError, the state queries) and exactly one dispatch
// goroutine calls ServiceInterrupt. The driver's interrupt mask makes the
// state check-and-set in the entry points indivisible with respect to the
// handler; the mask is held only around state transitions, never for the
// duration of a transfer.
package uart
