// Package report grades classification results and aggregates accuracy.
package report

import (
	"fmt"

	"github.com/FrenchMajesty/dns-sequence-classifier/knn"
	"github.com/FrenchMajesty/dns-sequence-classifier/label"
)

// Outcome is how a verdict compares to the expected label
type Outcome uint8

const (
	// Correct means the verdict is exactly the expected label
	Correct Outcome = iota
	// Undetermined means the expected label is among tied labels
	Undetermined
	// Wrong means the expected label is not part of the verdict
	Wrong
)

// Outcomes lists every outcome in order
var Outcomes = []Outcome{Correct, Undetermined, Wrong}

func (o Outcome) String() string {
	switch o {
	case Correct:
		return "Correct"
	case Undetermined:
		return "Undetermined"
	default:
		return "Wrong"
	}
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Judge compares a verdict with the expected label
func Judge(v knn.Verdict, expected label.Label) Outcome {
	if w, ok := v.Winner(); ok && w == expected {
		return Correct
	}
	if v.Contains(expected) {
		return Undetermined
	}
	return Wrong
}

// Quality grades how strongly the neighborhood supports the expected label.
// Each grade implies every lower grade above Wrong.
type Quality uint8

const (
	// NoResult means there were no neighbors
	NoResult Quality = iota
	// QualityWrong means no neighbor has the expected label
	QualityWrong
	// Contains means some neighbor has the expected label
	Contains
	// PluralityThenMinDist means the expected label shares the highest count
	// but is strictly closest among the labels with that count
	PluralityThenMinDist
	// Plurality means the expected label alone has the highest count
	Plurality
	// Majority means more than half of the neighbors have the expected label
	Majority
	// Exact means every neighbor has the expected label
	Exact
)

// Qualities lists every quality in ascending order
var Qualities = []Quality{NoResult, QualityWrong, Contains, PluralityThenMinDist, Plurality, Majority, Exact}

func (q Quality) String() string {
	switch q {
	case NoResult:
		return "NoResult"
	case QualityWrong:
		return "Wrong"
	case Contains:
		return "Contains"
	case PluralityThenMinDist:
		return "PluralityThenMinDist"
	case Plurality:
		return "Plurality"
	case Majority:
		return "Majority"
	case Exact:
		return "Exact"
	default:
		return fmt.Sprintf("Quality(%d)", uint8(q))
	}
}

func (q Quality) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

// Grade determines the quality of a neighborhood's label options for expected
func Grade(options []knn.LabelOption, expected label.Label) Quality {
	if len(options) == 0 {
		return NoResult
	}
	if len(options) == 1 && options[0].Label == expected {
		return Exact
	}

	var (
		correct knn.LabelOption
		found   bool
		total   int
	)
	for _, opt := range options {
		total += opt.Count
		if opt.Label == expected {
			correct, found = opt, true
		}
	}
	if !found {
		return QualityWrong
	}

	if correct.Count*2 > total {
		return Majority
	}

	sole, closest := true, true
	for _, other := range options {
		if other.Label == expected {
			continue
		}
		if other.Count >= correct.Count {
			sole = false
		}
		if other.Count > correct.Count || (other.Count == correct.Count && other.MinDistance <= correct.MinDistance) {
			closest = false
		}
	}

	switch {
	case sole:
		return Plurality
	case closest:
		return PluralityThenMinDist
	default:
		return Contains
	}
}
