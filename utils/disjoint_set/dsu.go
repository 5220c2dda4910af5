// Package disjoint_set groups website labels that share one network fingerprint.
//
// Several domains served by the same organization (for example the
// properties of one CDN customer) produce indistinguishable DNS traces. The
// set's root label names the whole group.
package disjoint_set

import (
	"slices"
	"sync"
)

// DSU represents a Disjoint Set Union over label strings
type DSU = dsu

type dsu struct {
	root       []int
	rank       []int
	labels     map[string]int
	labelIndex map[int]string
	lock       sync.RWMutex
}

// NewDSU creates an empty DSU
func NewDSU() *dsu {
	return &dsu{
		root:       make([]int, 0),
		rank:       make([]int, 0),
		labels:     make(map[string]int),
		labelIndex: make(map[int]string),
	}
}

// Add adds a label as its own group. Returns the label's index; adding a
// known label returns its existing index.
func (d *dsu) Add(label string) int {
	d.lock.Lock()
	defer d.lock.Unlock()

	if idx, ok := d.labels[label]; ok {
		return idx
	}
	return d.add(label)
}

// add appends a singleton set (caller must hold lock)
func (d *dsu) add(label string) int {
	idx := len(d.root)
	d.root = append(d.root, idx)
	d.rank = append(d.rank, 0)
	d.labels[label] = idx
	d.labelIndex[idx] = label
	return idx
}

// find finds the root of the set (caller must hold the write lock)
func (d *dsu) find(x int) int {
	if d.root[x] == x {
		return x
	}

	d.root[x] = d.find(d.root[x]) // Path compression
	return d.root[x]
}

// lookup finds the root without compressing, safe under the read lock
func (d *dsu) lookup(x int) int {
	for d.root[x] != x {
		x = d.root[x]
	}
	return x
}

// FindOrCreate finds the root of the set by label, or adds it if it doesn't exist
func (d *dsu) FindOrCreate(label string) int {
	d.lock.Lock()
	defer d.lock.Unlock()

	idx, ok := d.labels[label]
	if !ok {
		return d.add(label)
	}

	return d.find(idx)
}

// Union merges two sets by rank
func (d *dsu) Union(x int, y int) {
	d.lock.Lock()
	defer d.lock.Unlock()

	rootX := d.find(x)
	rootY := d.find(y)

	if rootX == rootY {
		return
	}

	if d.rank[rootX] > d.rank[rootY] {
		d.root[rootY] = rootX
	} else if d.rank[rootX] < d.rank[rootY] {
		d.root[rootX] = rootY
	} else {
		d.root[rootY] = rootX
		d.rank[rootX]++
	}
}

// Alias merges the group of domain into the group of target. Unlike Union, the
// root of target's group always stays the root, so the group keeps its name.
func (d *dsu) Alias(domain, target string) {
	d.lock.Lock()
	defer d.lock.Unlock()

	x, ok := d.labels[domain]
	if !ok {
		x = d.add(domain)
	}
	y, ok := d.labels[target]
	if !ok {
		y = d.add(target)
	}

	rootX := d.find(x)
	rootY := d.find(y)
	if rootX == rootY {
		return
	}

	d.root[rootX] = rootY
	if d.rank[rootX] >= d.rank[rootY] {
		d.rank[rootY] = d.rank[rootX] + 1
	}
}

// Canonical returns the root label of label's group, or label itself when unknown
func (d *dsu) Canonical(label string) string {
	d.lock.RLock()
	defer d.lock.RUnlock()

	idx, ok := d.labels[label]
	if !ok {
		return label
	}
	return d.labelIndex[d.lookup(idx)]
}

// Connected checks if two elements are in the same set
func (d *dsu) Connected(x int, y int) bool {
	d.lock.RLock()
	defer d.lock.RUnlock()

	return d.lookup(x) == d.lookup(y)
}

// Size returns the number of labels in the DSU
func (d *dsu) Size() int {
	d.lock.RLock()
	defer d.lock.RUnlock()

	return len(d.labels)
}

// Labels returns all labels in the DSU, sorted
func (d *dsu) Labels() []string {
	d.lock.RLock()
	defer d.lock.RUnlock()

	labels := make([]string, 0, len(d.labels))
	for label := range d.labels {
		labels = append(labels, label)
	}
	slices.Sort(labels)
	return labels
}

// Members returns the sorted labels sharing label's group
func (d *dsu) Members(label string) []string {
	d.lock.RLock()
	defer d.lock.RUnlock()

	idx, ok := d.labels[label]
	if !ok {
		return nil
	}
	root := d.lookup(idx)

	var members []string
	for l, i := range d.labels {
		if d.lookup(i) == root {
			members = append(members, l)
		}
	}
	slices.Sort(members)
	return members
}

// CountSets returns the number of distinct groups
func (d *dsu) CountSets() int {
	d.lock.RLock()
	defer d.lock.RUnlock()

	rootSet := make(map[int]bool)
	for i := range d.root {
		rootSet[d.lookup(i)] = true
	}

	return len(rootSet)
}

// FindLabel finds the label by a root index
func (d *dsu) FindLabel(idx int) string {
	d.lock.RLock()
	defer d.lock.RUnlock()

	if label, ok := d.labelIndex[idx]; ok {
		return label
	}

	return ""
}
