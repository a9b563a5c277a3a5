package gpio

// FakeButton is a test double that returns scripted button levels.
type FakeButton struct {
	// Levels contains scripted raw levels to return.
	// Each call to Read() consumes the next level.
	Levels []bool

	index int

	// Reads counts calls to Read
	Reads int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakeButton creates a FakeButton with the given levels.
func NewFakeButton(levels ...bool) *FakeButton {
	return &FakeButton{Levels: levels}
}

// Read returns the next scripted level.
// If levels are exhausted, returns the last level repeatedly.
// With no levels configured the button reads as released.
func (f *FakeButton) Read() (bool, error) {
	f.Reads++
	if f.ReadError != nil {
		return false, f.ReadError
	}
	if len(f.Levels) == 0 {
		return false, nil
	}

	level := f.Levels[f.index]
	if f.index < len(f.Levels)-1 {
		f.index++
	}
	return level, nil
}

// Close marks the button as closed.
func (f *FakeButton) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds the button to the first level.
func (f *FakeButton) Reset() {
	f.index = 0
	f.Reads = 0
	f.Closed = false
}
