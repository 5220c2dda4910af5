package corpus

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/FrenchMajesty/dns-sequence-classifier/utils/disjoint_set"
)

// AliasPersistence loads and saves label aliases
type AliasPersistence interface {
	Load() (*disjoint_set.DSU, error)
	Save(aliases *disjoint_set.DSU) error
}

// FileAliasPersistence implements AliasPersistence using a JSON file
type FileAliasPersistence struct {
	filepath string
}

// NewFileAliasPersistence creates a new file-based alias persistence handler
func NewFileAliasPersistence(filepath string) *FileAliasPersistence {
	return &FileAliasPersistence{
		filepath: filepath,
	}
}

// Load loads the aliases from the file. If the file doesn't exist, returns an empty DSU.
func (f *FileAliasPersistence) Load() (*disjoint_set.DSU, error) {
	data, err := os.ReadFile(f.filepath)
	if errors.Is(err, os.ErrNotExist) {
		return disjoint_set.NewDSU(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read aliases from file %s: %w", f.filepath, err)
	}

	aliases := disjoint_set.NewDSU()
	if err := json.Unmarshal(data, aliases); err != nil {
		return nil, fmt.Errorf("failed to unmarshal aliases from file %s: %w", f.filepath, err)
	}

	return aliases, nil
}

// Save saves the aliases to the file
func (f *FileAliasPersistence) Save(aliases *disjoint_set.DSU) error {
	data, err := json.Marshal(aliases)
	if err != nil {
		return fmt.Errorf("failed to marshal aliases: %w", err)
	}

	if err := os.WriteFile(f.filepath, data, 0644); err != nil {
		return fmt.Errorf("failed to write aliases to file %s: %w", f.filepath, err)
	}

	return nil
}

// ReadConfusion reads `domain,is_similar_to` rows without a header and aliases
// each domain to its target. Rows whose first field starts with '#' are
// comments. A domain already mapped into a different group keeps its first
// mapping; the conflict is logged. Returns the number of rows applied.
func ReadConfusion(r io.Reader, aliases *disjoint_set.DSU, logger *zap.Logger) (int, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	applied := 0
	for line := 1; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return applied, fmt.Errorf("failed to read confusion row %d: %w", line, err)
		}
		if len(record) == 0 || strings.HasPrefix(record[0], "#") {
			continue
		}
		if len(record) != 2 {
			return applied, fmt.Errorf("confusion row %d has %d fields, want 2", line, len(record))
		}

		domain, target := strings.TrimSpace(record[0]), strings.TrimSpace(record[1])
		if domain == "" || target == "" {
			return applied, fmt.Errorf("confusion row %d has an empty field", line)
		}

		current := aliases.Canonical(domain)
		if current != domain && current != aliases.Canonical(target) {
			logger.Warn("conflicting confusion mapping, keeping the first",
				zap.String("domain", domain),
				zap.String("existing", current),
				zap.String("ignored", target),
			)
			continue
		}

		aliases.Alias(domain, target)
		applied++
	}

	return applied, nil
}

// LoadConfusion reads a confusion CSV file into aliases
func LoadConfusion(path string, aliases *disjoint_set.DSU, logger *zap.Logger) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open confusion file %s: %w", path, err)
	}
	defer f.Close()

	return ReadConfusion(f, aliases, logger)
}
