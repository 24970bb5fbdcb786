package marker

// Marker is a tracked region of a Buffer.
//
// Edit rules for a replacement of [b, e) by n runes (delta = n - (e-b)):
//   - Start stays when Start <= b, moves by delta when Start >= e,
//     and snaps to b when it lies inside the replaced text.
//   - End stays when End <= b, moves by delta when End >= e,
//     and snaps to b+n when it lies inside the replaced text.
//
// So text inserted at Start joins the region, text inserted at End does not,
// and replacing exactly [Start, End) leaves the marker over the new text.
type Marker struct {
	buf      *Buffer
	start    int
	end      int
	style    string
	released bool
}

// Range returns the current [start, end).
func (m *Marker) Range() (start, end int, err error) {
	m.buf.mu.Lock()
	defer m.buf.mu.Unlock()
	if m.released {
		return 0, 0, ErrReleased
	}
	return m.start, m.end, nil
}

// Text returns the text currently covered by the marker.
func (m *Marker) Text() (string, error) {
	m.buf.mu.Lock()
	defer m.buf.mu.Unlock()
	if m.released {
		return "", ErrReleased
	}
	return string(m.buf.text[m.start:m.end]), nil
}

// Replace substitutes text for the marker's current region.
func (m *Marker) Replace(text string) error {
	m.buf.mu.Lock()
	defer m.buf.mu.Unlock()
	if m.released {
		return ErrReleased
	}
	return m.buf.replaceLocked(m.start, m.end, text)
}

// Style returns the display style tag; "" means unstyled.
func (m *Marker) Style() string {
	m.buf.mu.Lock()
	defer m.buf.mu.Unlock()
	return m.style
}

// SetStyle sets the display style tag.
func (m *Marker) SetStyle(style string) {
	m.buf.mu.Lock()
	defer m.buf.mu.Unlock()
	m.style = style
}

// Released reports whether Release was called.
func (m *Marker) Released() bool {
	m.buf.mu.Lock()
	defer m.buf.mu.Unlock()
	return m.released
}

// Release stops tracking. It is idempotent.
func (m *Marker) Release() {
	m.buf.mu.Lock()
	defer m.buf.mu.Unlock()
	if m.released {
		return
	}
	m.released = true
	m.style = ""
	m.buf.release(m)
}

func (m *Marker) shift(b, e, n int) {
	delta := n - (e - b)

	switch {
	case m.start <= b:
	case m.start >= e:
		m.start += delta
	default:
		m.start = b
	}

	switch {
	case m.end <= b:
	case m.end >= e:
		m.end += delta
	default:
		m.end = b + n
	}

	if m.end < m.start {
		m.end = m.start
	}
}
