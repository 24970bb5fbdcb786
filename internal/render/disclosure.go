package render

import "sync"

// Disclosure is a collapsible guidance section. It starts collapsed.
type Disclosure struct {
	mu       sync.Mutex
	name     string
	expanded bool
}

// Header is "+ name" while collapsed and "- name" while expanded.
func (d *Disclosure) Header() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.expanded {
		return "- " + d.name
	}
	return "+ " + d.name
}

// Expanded reports whether the guidance is shown.
func (d *Disclosure) Expanded() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.expanded
}

// Toggle flips the state and returns the new one.
func (d *Disclosure) Toggle() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.expanded = !d.expanded
	return d.expanded
}
