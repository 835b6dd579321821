package ir

// FakeSource is a channel-backed Source for tests.
type FakeSource struct {
	ch     chan Frame
	Closed bool
}

func NewFakeSource() *FakeSource {
	return &FakeSource{ch: make(chan Frame, 16)}
}

// Emit queues a frame for the listener.
func (f *FakeSource) Emit(frame Frame) {
	f.ch <- frame
}

func (f *FakeSource) Frames() <-chan Frame {
	return f.ch
}

// Close closes the frame channel, ending any Listener.Run loop.
func (f *FakeSource) Close() error {
	f.Closed = true
	close(f.ch)
	return nil
}
