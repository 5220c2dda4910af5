package disjoint_set

import (
	"encoding/json"
	"fmt"
)

// MarshalJSON implements json.Marshaler interface
func (d *dsu) MarshalJSON() ([]byte, error) {
	d.lock.RLock()
	defer d.lock.RUnlock()

	return json.Marshal(map[string]interface{}{
		"root":   d.root,
		"rank":   d.rank,
		"labels": d.labels,
	})
}

// UnmarshalJSON implements json.Unmarshaler interface
func (d *dsu) UnmarshalJSON(data []byte) error {
	var temp struct {
		Root   []int          `json:"root"`
		Rank   []int          `json:"rank"`
		Labels map[string]int `json:"labels"`
	}

	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}
	if len(temp.Root) != len(temp.Rank) || len(temp.Labels) != len(temp.Root) {
		return fmt.Errorf("inconsistent DSU: %d roots, %d ranks, %d labels", len(temp.Root), len(temp.Rank), len(temp.Labels))
	}

	labelIndex := make(map[int]string, len(temp.Labels))
	for label, idx := range temp.Labels {
		if idx < 0 || idx >= len(temp.Root) {
			return fmt.Errorf("label %q has index %d out of range", label, idx)
		}
		labelIndex[idx] = label
	}
	for i, r := range temp.Root {
		if r < 0 || r >= len(temp.Root) {
			return fmt.Errorf("element %d has root %d out of range", i, r)
		}
	}

	d.lock.Lock()
	defer d.lock.Unlock()

	d.root = temp.Root
	d.rank = temp.Rank
	d.labels = temp.Labels
	d.labelIndex = labelIndex

	return nil
}
