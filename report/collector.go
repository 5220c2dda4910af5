package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/montanaflynn/stats"

	"github.com/FrenchMajesty/dns-sequence-classifier/label"
)

// Counts tallies outcomes
type Counts struct {
	Correct      int `json:"correct"`
	Undetermined int `json:"undetermined"`
	Wrong        int `json:"wrong"`
}

func (c *Counts) add(o Outcome) {
	switch o {
	case Correct:
		c.Correct++
	case Undetermined:
		c.Undetermined++
	default:
		c.Wrong++
	}
}

// Total is the number of tallied outcomes
func (c Counts) Total() int {
	return c.Correct + c.Undetermined + c.Wrong
}

// Accuracy is the share of correct outcomes, or 0 when nothing was tallied
func (c Counts) Accuracy() float64 {
	if c.Total() == 0 {
		return 0
	}
	return float64(c.Correct) / float64(c.Total())
}

// Summary aggregates every fold for one k
type Summary struct {
	K int `json:"k"`
	Counts
	Folds          int             `json:"folds"`
	MeanAccuracy   float64         `json:"mean_accuracy"`
	StdDevAccuracy float64         `json:"stddev_accuracy"`
	MinAccuracy    float64         `json:"min_accuracy"`
	MaxAccuracy    float64         `json:"max_accuracy"`
	Qualities      map[Quality]int `json:"qualities"`
}

// DomainCounts tallies outcomes for one true domain
type DomainCounts struct {
	Domain string `json:"domain"`
	Counts
}

// Collector accumulates graded rows per k. It is safe for concurrent use.
type Collector struct {
	mu        sync.Mutex
	global    map[int]*Counts
	folds     map[int]map[int]*Counts
	domains   map[int]map[string]*Counts
	labels    map[int]map[label.Label]*Counts
	qualities map[int]map[Quality]int
}

// NewCollector creates an empty collector
func NewCollector() *Collector {
	return &Collector{
		global:    make(map[int]*Counts),
		folds:     make(map[int]map[int]*Counts),
		domains:   make(map[int]map[string]*Counts),
		labels:    make(map[int]map[label.Label]*Counts),
		qualities: make(map[int]map[Quality]int),
	}
}

func counter[K comparable](m map[int]map[K]*Counts, k int, key K) *Counts {
	inner, ok := m[k]
	if !ok {
		inner = make(map[K]*Counts)
		m[k] = inner
	}
	c, ok := inner[key]
	if !ok {
		c = &Counts{}
		inner[key] = c
	}
	return c
}

// Add records row as observed in fold
func (c *Collector) Add(fold int, row Row) {
	c.mu.Lock()
	defer c.mu.Unlock()

	g, ok := c.global[row.K]
	if !ok {
		g = &Counts{}
		c.global[row.K] = g
	}
	g.add(row.Outcome)

	counter(c.folds, row.K, fold).add(row.Outcome)
	counter(c.domains, row.K, row.Domain).add(row.Outcome)
	counter(c.labels, row.K, row.Expected).add(row.Outcome)

	if c.qualities[row.K] == nil {
		c.qualities[row.K] = make(map[Quality]int)
	}
	c.qualities[row.K][row.Quality]++
}

// Ks returns every recorded k in ascending order
func (c *Collector) Ks() []int {
	c.mu.Lock()
	defer c.mu.Unlock()

	ks := make([]int, 0, len(c.global))
	for k := range c.global {
		ks = append(ks, k)
	}
	slices.Sort(ks)
	return ks
}

// Summary aggregates the outcomes recorded for k. Accuracy statistics are
// taken across folds.
func (c *Collector) Summary(k int) Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Summary{K: k, Qualities: make(map[Quality]int)}
	if g, ok := c.global[k]; ok {
		s.Counts = *g
	}
	for q, n := range c.qualities[k] {
		s.Qualities[q] = n
	}

	accuracies := make([]float64, 0, len(c.folds[k]))
	for _, fc := range c.folds[k] {
		accuracies = append(accuracies, fc.Accuracy())
	}
	s.Folds = len(accuracies)
	if s.Folds == 0 {
		return s
	}

	data := stats.LoadRawData(accuracies)
	s.MeanAccuracy, _ = data.Mean()
	s.StdDevAccuracy, _ = data.StandardDeviation()
	s.MinAccuracy, _ = data.Min()
	s.MaxAccuracy, _ = data.Max()
	return s
}

// Domains returns the outcomes for k per true domain, sorted by domain
func (c *Collector) Domains(k int) []DomainCounts {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]DomainCounts, 0, len(c.domains[k]))
	for d, dc := range c.domains[k] {
		out = append(out, DomainCounts{Domain: d, Counts: *dc})
	}
	slices.SortFunc(out, func(a, b DomainCounts) int {
		return strings.Compare(a.Domain, b.Domain)
	})
	return out
}

// CorrectAtLeast returns, for each x, how many domains were classified
// correctly at least x times under k. Index 0 counts every domain.
func (c *Collector) CorrectAtLeast(k int) []int {
	c.mu.Lock()
	defer c.mu.Unlock()

	maxCorrect := 0
	for _, dc := range c.domains[k] {
		maxCorrect = max(maxCorrect, dc.Correct)
	}
	if len(c.domains[k]) == 0 {
		return nil
	}

	hist := make([]int, maxCorrect+1)
	for _, dc := range c.domains[k] {
		hist[dc.Correct]++
	}
	for x := maxCorrect - 1; x >= 0; x-- {
		hist[x] += hist[x+1]
	}
	return hist
}

// WriteCSV writes the outcomes per k and expected label
func (c *Collector) WriteCSV(w io.Writer) error {
	ks := c.Ks()

	c.mu.Lock()
	defer c.mu.Unlock()

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"k", "label", "correct", "undetermined", "wrong"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, k := range ks {
		labels := make([]label.Label, 0, len(c.labels[k]))
		for l := range c.labels[k] {
			labels = append(labels, l)
		}
		slices.SortFunc(labels, func(a, b label.Label) int {
			return strings.Compare(a.String(), b.String())
		})

		for _, l := range labels {
			lc := c.labels[k][l]
			record := []string{
				strconv.Itoa(k),
				l.String(),
				strconv.Itoa(lc.Correct),
				strconv.Itoa(lc.Undetermined),
				strconv.Itoa(lc.Wrong),
			}
			if err := cw.Write(record); err != nil {
				return fmt.Errorf("failed to write stats for %s: %w", l, err)
			}
		}
	}

	cw.Flush()
	return cw.Error()
}
