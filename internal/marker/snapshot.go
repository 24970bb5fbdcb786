package marker

import "fmt"

// Snapshot is the buffer content at one point in time. Regions found in the
// snapshot are mapped onto the live buffer through the edits made since it
// was taken.
type Snapshot struct {
	buf      *Buffer
	text     []rune
	edits    []edit
	released bool
}

type edit struct{ begin, end, n int }

// Snapshot copies the current content and starts recording edits.
// Release it when done.
func (b *Buffer) Snapshot() *Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := &Snapshot{buf: b, text: append([]rune(nil), b.text...)}
	b.snapshots = append(b.snapshots, s)
	return s
}

// Text returns the content at the time of the snapshot.
func (s *Snapshot) Text() string {
	return string(s.text)
}

// Len returns the snapshot length in runes.
func (s *Snapshot) Len() int {
	return len(s.text)
}

// Slice returns the snapshot text in [begin, end).
func (s *Snapshot) Slice(begin, end int) (string, error) {
	if err := s.checkRange(begin, end); err != nil {
		return "", err
	}
	return string(s.text[begin:end]), nil
}

// Edited reports whether the buffer changed since the snapshot was taken.
func (s *Snapshot) Edited() bool {
	s.buf.mu.Lock()
	defer s.buf.mu.Unlock()
	return len(s.edits) > 0
}

// Mark places a marker on the live buffer over the text that was at
// [begin, end) in the snapshot.
func (s *Snapshot) Mark(begin, end int) (*Marker, error) {
	s.buf.mu.Lock()
	defer s.buf.mu.Unlock()
	if s.released {
		return nil, ErrReleased
	}
	if err := s.checkRange(begin, end); err != nil {
		return nil, err
	}
	m := &Marker{buf: s.buf, start: begin, end: end}
	for _, e := range s.edits {
		m.shift(e.begin, e.end, e.n)
	}
	s.buf.markers = append(s.buf.markers, m)
	return m, nil
}

// Release stops recording edits. It is safe to call more than once.
func (s *Snapshot) Release() {
	s.buf.mu.Lock()
	defer s.buf.mu.Unlock()
	if s.released {
		return
	}
	s.released = true
	s.edits = nil
	for i, other := range s.buf.snapshots {
		if other == s {
			s.buf.snapshots = append(s.buf.snapshots[:i], s.buf.snapshots[i+1:]...)
			return
		}
	}
}

func (s *Snapshot) checkRange(begin, end int) error {
	if begin < 0 || end < begin || end > len(s.text) {
		return fmt.Errorf("%w: [%d, %d) (snapshot len %d)", ErrOutOfRange, begin, end, len(s.text))
	}
	return nil
}
