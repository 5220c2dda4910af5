// Package label interns website labels into process-wide handles.
//
// A Label is compared by handle, so vote tallies never compare strings.
// Labels are never released; the table lives as long as the process.
package label

import "sync"

// Label is an interned label handle. The zero Label is the empty string.
type Label uint32

type table struct {
	names  []string
	labels map[string]Label
	lock   sync.RWMutex
}

var global = newTable()

func newTable() *table {
	return &table{
		names:  []string{""},
		labels: map[string]Label{"": 0},
	}
}

// Intern returns the canonical handle for s
func Intern(s string) Label {
	return global.intern(s)
}

// Lookup returns the handle for s without creating one
func Lookup(s string) (Label, bool) {
	global.lock.RLock()
	defer global.lock.RUnlock()

	l, ok := global.labels[s]
	return l, ok
}

// Count returns the number of interned labels, including the empty label
func Count() int {
	global.lock.RLock()
	defer global.lock.RUnlock()

	return len(global.names)
}

func (t *table) intern(s string) Label {
	t.lock.RLock()
	l, ok := t.labels[s]
	t.lock.RUnlock()
	if ok {
		return l
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	if l, ok := t.labels[s]; ok {
		return l
	}
	l = Label(len(t.names))
	t.names = append(t.names, s)
	t.labels[s] = l
	return l
}

func (t *table) name(l Label) string {
	t.lock.RLock()
	defer t.lock.RUnlock()

	if int(l) < len(t.names) {
		return t.names[l]
	}
	return ""
}

// String returns the interned string
func (l Label) String() string {
	return global.name(l)
}

// MarshalText implements encoding.TextMarshaler
func (l Label) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, interning the text
func (l *Label) UnmarshalText(text []byte) error {
	*l = Intern(string(text))
	return nil
}

// Less orders labels by their string content
func Less(a, b Label) bool {
	if a == b {
		return false
	}
	return a.String() < b.String()
}
