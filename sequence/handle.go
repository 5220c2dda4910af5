package sequence

import (
	"encoding/binary"
	"sync"
)

// Handle is a process-wide identity for a token list.
// Sequences with equal content share one Handle.
type Handle uint32

type handleTable struct {
	handles map[string]Handle
	lock    sync.RWMutex
}

var handles = &handleTable{
	handles: make(map[string]Handle),
}

// Intern returns the content handle of s, allocating one on first sight
func Intern(s *Sequence) Handle {
	key := contentKey(s.tokens)

	handles.lock.RLock()
	h, ok := handles.handles[key]
	handles.lock.RUnlock()
	if ok {
		return h
	}

	handles.lock.Lock()
	defer handles.lock.Unlock()

	// another goroutine may have won the race between the two locks
	if h, ok := handles.handles[key]; ok {
		return h
	}
	h = Handle(len(handles.handles))
	handles.handles[key] = h
	return h
}

// contentKey encodes tokens as 3 bytes each: kind, then big-endian magnitude
func contentKey(tokens []Token) string {
	buf := make([]byte, 3*len(tokens))
	for i, t := range tokens {
		buf[3*i] = byte(t.Kind)
		binary.BigEndian.PutUint16(buf[3*i+1:], t.Magnitude)
	}
	return string(buf)
}
