package voice

import "sync"

// FakeRecognizer records Start and Stop calls.
type FakeRecognizer struct {
	mu       sync.Mutex
	starts   int
	stops    int
	startErr error
}

func (f *FakeRecognizer) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	return f.startErr
}

func (f *FakeRecognizer) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	return nil
}

// SetStartError makes subsequent Start calls fail with err.
func (f *FakeRecognizer) SetStartError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startErr = err
}

// Starts returns the number of Start calls.
func (f *FakeRecognizer) Starts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts
}

// Stops returns the number of Stop calls.
func (f *FakeRecognizer) Stops() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stops
}

// Transcript collects spoken text.
type Transcript struct {
	mu    sync.Mutex
	lines []string
}

func (t *Transcript) Speak(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, text)
}

// Lines returns everything spoken so far.
func (t *Transcript) Lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.lines...)
}

// Last returns the most recent line, or "".
func (t *Transcript) Last() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.lines) == 0 {
		return ""
	}
	return t.lines[len(t.lines)-1]
}
