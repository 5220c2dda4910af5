package corpus

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Load reads a corpus file. `.bin` files use the binary layout; anything else
// is read as JSON lines or a JSON array.
func Load(path string) ([]Group, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus %s: %w", path, err)
	}
	defer f.Close()

	var groups []Group
	if isBinary(path) {
		groups, err = ReadBinary(f)
	} else {
		groups, err = ReadJSON(f)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load corpus %s: %w", path, err)
	}
	return groups, nil
}

// Save writes a corpus file in the format chosen by its extension
func Save(path string, groups []Group) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create corpus %s: %w", path, err)
	}

	w := bufio.NewWriter(f)
	if isBinary(path) {
		err = WriteBinary(w, groups)
	} else {
		err = WriteJSON(w, groups)
	}
	if err == nil {
		err = w.Flush()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to save corpus %s: %w", path, err)
	}
	return nil
}

func isBinary(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".bin")
}
