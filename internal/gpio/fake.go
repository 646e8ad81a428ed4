package gpio

// FakeIndicator is a test double that records every Set call.
type FakeIndicator struct {
	// States contains every value passed to Set, in order.
	States []bool

	// Closed tracks if Close was called
	Closed bool

	// SetError, if set, will be returned by Set()
	SetError error
}

// NewFakeIndicator creates a FakeIndicator that starts off.
func NewFakeIndicator() *FakeIndicator {
	return &FakeIndicator{}
}

// Set records the requested state.
func (f *FakeIndicator) Set(on bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.States = append(f.States, on)
	return nil
}

// On reports whether the last Set lit the LED.
func (f *FakeIndicator) On() bool {
	return len(f.States) > 0 && f.States[len(f.States)-1]
}

// Close turns the LED off and marks the indicator closed.
func (f *FakeIndicator) Close() error {
	f.States = append(f.States, false)
	f.Closed = true
	return nil
}

// Reset clears recorded states.
func (f *FakeIndicator) Reset() {
	f.States = nil
	f.Closed = false
	f.SetError = nil
}
