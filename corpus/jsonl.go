package corpus

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// maxLineSize bounds one JSON line; a domain with many long traces is large
const maxLineSize = 64 << 20

// WriteJSON writes one group per line
func WriteJSON(w io.Writer, groups []Group) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for _, g := range groups {
		if err := enc.Encode(g); err != nil {
			return fmt.Errorf("failed to encode group %s: %w", g.Domain, err)
		}
	}
	return bw.Flush()
}

// ReadJSON reads groups written by WriteJSON. A single JSON array of groups is
// accepted as well. Blank lines are skipped.
func ReadJSON(r io.Reader) ([]Group, error) {
	br := bufio.NewReader(r)

	first, err := peekNonSpace(br)
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if first == '[' {
		var groups []Group
		if err := json.NewDecoder(br).Decode(&groups); err != nil {
			return nil, fmt.Errorf("failed to decode corpus array: %w", err)
		}
		for i := range groups {
			groups[i].defaultLabel()
		}
		return groups, nil
	}

	scanner := bufio.NewScanner(br)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var groups []Group
	line := 0
	for scanner.Scan() {
		line++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}

		var g Group
		if err := json.Unmarshal(data, &g); err != nil {
			return nil, fmt.Errorf("failed to decode corpus line %d: %w", line, err)
		}
		g.defaultLabel()
		groups = append(groups, g)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read corpus: %w", err)
	}

	return groups, nil
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.Peek(1)
		if err != nil {
			return 0, err
		}
		switch b[0] {
		case ' ', '\t', '\r', '\n':
			if _, err := br.Discard(1); err != nil {
				return 0, err
			}
		default:
			return b[0], nil
		}
	}
}
