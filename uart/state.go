package uart

// State is the condition of one half (transmit or receive) of the driver.
type State uint8

const (
	StateIdle  State = iota // no transfer in flight, ready to arm
	StateBusy               // transfer armed, interrupt handler draining it
	StateError              // receive half suspended on a hardware error
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateBusy:
		return "Busy"
	case StateError:
		return "Error"
	default:
		return "Unknown"
	}
}

// ErrorKind classifies the hardware error that suspended reception.
type ErrorKind uint8

const (
	ErrKindNone    ErrorKind = iota // no error recorded
	ErrKindOverrun                  // receiver overrun
	ErrKindFraming                  // framing error
	ErrKindParity                   // parity error
	ErrKindNoise                    // line noise
)

// String returns the error kind name.
func (k ErrorKind) String() string {
	switch k {
	case ErrKindNone:
		return "None"
	case ErrKindOverrun:
		return "Overrun"
	case ErrKindFraming:
		return "Framing"
	case ErrKindParity:
		return "Parity"
	case ErrKindNoise:
		return "Noise"
	default:
		return "Unknown"
	}
}
