// Package marker implements a mutable text buffer with tracked regions.
//
// Offsets are 0-based rune offsets. Regions are half-open: [Start, End).
// A Marker follows the text it covers while the buffer is edited, until it
// is released. Releasing a marker never changes the buffer text.
package marker

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	// ErrReleased is returned when a released marker is used.
	ErrReleased = errors.New("marker: released")
	// ErrOutOfRange is returned for offsets outside the buffer.
	ErrOutOfRange = errors.New("marker: offset out of range")
)

// Buffer is rune-addressed text plus the markers placed on it.
// It is safe for concurrent use.
type Buffer struct {
	mu      sync.Mutex
	text    []rune
	markers []*Marker
	version uint64

	snapshots []*Snapshot
}

// NewBuffer creates a buffer holding text.
func NewBuffer(text string) *Buffer {
	return &Buffer{text: []rune(text)}
}

// Text returns the current content.
func (b *Buffer) Text() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.text)
}

// Len returns the content length in runes.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.text)
}

// Version increments on every effective edit.
func (b *Buffer) Version() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.version
}

// Slice returns the text in [begin, end).
func (b *Buffer) Slice(begin, end int) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkRange(begin, end); err != nil {
		return "", err
	}
	return string(b.text[begin:end]), nil
}

// Replace substitutes text for [begin, end) and shifts live markers.
func (b *Buffer) Replace(begin, end int, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.replaceLocked(begin, end, text)
}

func (b *Buffer) replaceLocked(begin, end int, text string) error {
	if err := b.checkRange(begin, end); err != nil {
		return err
	}
	insert := []rune(text)
	if begin == end && len(insert) == 0 {
		return nil
	}

	next := make([]rune, 0, len(b.text)-(end-begin)+len(insert))
	next = append(next, b.text[:begin]...)
	next = append(next, insert...)
	next = append(next, b.text[end:]...)
	b.text = next
	b.version++

	for _, m := range b.markers {
		m.shift(begin, end, len(insert))
	}
	for _, s := range b.snapshots {
		s.edits = append(s.edits, edit{begin: begin, end: end, n: len(insert)})
	}
	return nil
}

// SetText makes text the buffer content with a single replacement of the
// span where old and new content differ, so markers outside that span keep
// their place. The span is placed as far left as the common suffix allows:
// a line inserted above a marked line lands before the preceding newline
// and does not join the marker. It reports whether anything changed.
func (b *Buffer) SetText(text string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	next := []rune(text)
	suffix := 0
	for suffix < len(b.text) && suffix < len(next) &&
		b.text[len(b.text)-1-suffix] == next[len(next)-1-suffix] {
		suffix++
	}
	prefix := 0
	for prefix < len(b.text)-suffix && prefix < len(next)-suffix && b.text[prefix] == next[prefix] {
		prefix++
	}
	if suffix == len(b.text) && suffix == len(next) {
		return false
	}
	_ = b.replaceLocked(prefix, len(b.text)-suffix, string(next[prefix:len(next)-suffix]))
	return true
}

// Mark places a marker over [begin, end).
func (b *Buffer) Mark(begin, end int) (*Marker, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkRange(begin, end); err != nil {
		return nil, err
	}
	m := &Marker{buf: b, start: begin, end: end}
	b.markers = append(b.markers, m)
	return m, nil
}

// Markers returns the number of live markers.
func (b *Buffer) Markers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.markers)
}

// LineCol converts offset to a 1-based line and column, both counted in runes.
func (b *Buffer) LineCol(offset int) (line, col int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if offset < 0 || offset > len(b.text) {
		return 0, 0, fmt.Errorf("%w: %d (len %d)", ErrOutOfRange, offset, len(b.text))
	}
	line, col = 1, 1
	for _, r := range b.text[:offset] {
		if r == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col, nil
}

// Line returns the 1-based line's text without its newline.
func (b *Buffer) Line(n int) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	lines := strings.Split(string(b.text), "\n")
	if n < 1 || n > len(lines) {
		return ""
	}
	return lines[n-1]
}

func (b *Buffer) checkRange(begin, end int) error {
	if begin < 0 || end < begin || end > len(b.text) {
		return fmt.Errorf("%w: [%d, %d) (len %d)", ErrOutOfRange, begin, end, len(b.text))
	}
	return nil
}

func (b *Buffer) release(m *Marker) {
	for i, other := range b.markers {
		if other == m {
			b.markers = append(b.markers[:i], b.markers[i+1:]...)
			return
		}
	}
}
