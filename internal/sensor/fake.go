package sensor

// FakeSample is one scripted result of FakeReader.
type FakeSample struct {
	C   float64
	Err error
}

// FakeReader is a test double that returns scripted temperatures.
type FakeReader struct {
	// Samples contains scripted results.
	// Each call to ReadCelsius() consumes the next sample.
	Samples []FakeSample

	index int

	// Reads counts calls to ReadCelsius
	Reads int

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeReader creates a FakeReader returning the given temperatures.
func NewFakeReader(temps ...float64) *FakeReader {
	f := &FakeReader{}
	for _, c := range temps {
		f.Samples = append(f.Samples, FakeSample{C: c})
	}
	return f
}

// ReadCelsius returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeReader) ReadCelsius() (float64, error) {
	f.Reads++
	if len(f.Samples) == 0 {
		return DisconnectedC, ErrDisconnected
	}

	s := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return s.C, s.Err
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}
