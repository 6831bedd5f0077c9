package frame

import "io"

// State is the receive state of a Receiver.
type State int

// Receive states. StateDecoded and the failure states are terminal.
const (
	StateAwaitingSync State = iota
	StateAwaitingHeader
	StateAwaitingPayload
	StateDecoded
	StateNoSync
	StateIncompleteHeader
	StateSizeMismatch
	StateIncompletePayload
	StateTransportError
)

var stateNames = map[State]string{
	StateAwaitingSync:      "AwaitingSync",
	StateAwaitingHeader:    "AwaitingHeader",
	StateAwaitingPayload:   "AwaitingPayload",
	StateDecoded:           "Decoded",
	StateNoSync:            "NoSync",
	StateIncompleteHeader:  "IncompleteHeader",
	StateSizeMismatch:      "SizeMismatch",
	StateIncompletePayload: "IncompletePayload",
	StateTransportError:    "TransportError",
}

// String implements fmt.Stringer.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "Invalid"
}

// IsTerminal tells whether a receive attempt ends in this state.
func (s State) IsTerminal() bool {
	return s >= StateDecoded
}

// StateNotifier is called on every state transition.
type StateNotifier interface {
	StateChanged(State)
}

// StateChangedFunc is func type of StateNotifier.
type StateChangedFunc func(State)

// StateChanged implements StateNotifier.
func (f StateChangedFunc) StateChanged(s State) {
	f(s)
}

// Frame is a received and decoded frame.
type Frame struct {
	Header     Header
	Descriptor Descriptor
	Payload    []byte
	Grid       *Grid
}

// Receiver runs one-shot receive attempts.
// A Receiver must not be shared between byte sources.
type Receiver struct {
	Notifier StateNotifier

	state   State
	scanner Scanner
}

// State returns where the last attempt stopped.
func (r *Receiver) State() State {
	return r.state
}

// Skipped returns the number of noise bytes consumed before the preamble
// in the last attempt.
func (r *Receiver) Skipped() int {
	return r.scanner.Skipped()
}

// Receive performs a single attempt: sync, header, payload, decode.
// Nothing is retried; on failure the next call restarts from sync.
func (r *Receiver) Receive(src io.Reader) (*Frame, error) {
	r.scanner.Reset()
	r.setState(StateAwaitingSync)
	found, err := r.scanner.Scan(src)
	if err != nil {
		return nil, r.transportError(err)
	}
	if !found {
		r.setState(StateNoSync)
		return nil, ErrNoSync
	}

	r.setState(StateAwaitingHeader)
	b, err := ReadExact(src, HeaderSize)
	if err != nil {
		return nil, r.transportError(err)
	}
	hdr, err := ParseHeader(b)
	if err != nil {
		r.setState(StateIncompleteHeader)
		return nil, err
	}
	if err = hdr.Validate(); err != nil {
		r.setState(StateSizeMismatch)
		return nil, err
	}

	r.setState(StateAwaitingPayload)
	payload, err := ReadExact(src, int(hdr.PayloadSize))
	if err != nil {
		return nil, r.transportError(err)
	}
	if len(payload) != int(hdr.PayloadSize) {
		r.setState(StateIncompletePayload)
		return nil, &IncompletePayloadError{Got: len(payload), Expected: int(hdr.PayloadSize)}
	}

	grid, err := Decode(hdr.Format, payload, int(hdr.Width), int(hdr.Height))
	if err != nil {
		r.setState(StateIncompletePayload)
		return nil, err
	}
	r.setState(StateDecoded)
	return &Frame{
		Header:     hdr,
		Descriptor: Describe(hdr.Format),
		Payload:    payload,
		Grid:       grid,
	}, nil
}

func (r *Receiver) transportError(err error) error {
	e := &TransportError{State: r.state, Err: err}
	r.setState(StateTransportError)
	return e
}

func (r *Receiver) setState(s State) {
	r.state = s
	if n := r.Notifier; n != nil {
		n.StateChanged(s)
	}
}

// Receive is a shortcut of a one-shot attempt with a fresh Receiver.
func Receive(src io.Reader) (*Frame, error) {
	var r Receiver
	return r.Receive(src)
}

// WriteFrame writes preamble, header and payload for the given format and
// dimensions. The payload length must match the header.
func WriteFrame(w io.Writer, f Format, width, height uint8, payload []byte) error {
	hdr := NewHeader(f, width, height)
	if int(hdr.PayloadSize) != len(payload) {
		return &SizeMismatchError{Expected: hdr.PayloadSize, Declared: uint32(len(payload))}
	}
	buf := make([]byte, 0, len(Preamble)+HeaderSize+len(payload))
	buf = append(buf, Preamble[:]...)
	buf = hdr.appendTo(buf)
	buf = append(buf, payload...)
	_, err := w.Write(buf)
	return err
}

// FromPayload builds a frame from an already received payload, e.g. one
// replayed from a recording.
func FromPayload(f Format, width, height uint8, payload []byte) (*Frame, error) {
	hdr := Header{PayloadSize: uint32(len(payload)), Format: f, Width: width, Height: height}
	if err := hdr.Validate(); err != nil {
		return nil, err
	}
	grid, err := Decode(f, payload, int(width), int(height))
	if err != nil {
		return nil, err
	}
	return &Frame{Header: hdr, Descriptor: Describe(f), Payload: payload, Grid: grid}, nil
}
