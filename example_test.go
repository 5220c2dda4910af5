package classifier_test

import (
	"context"
	"fmt"
	"log"

	classifier "github.com/FrenchMajesty/dns-sequence-classifier"
	"github.com/FrenchMajesty/dns-sequence-classifier/corpus"
	"github.com/FrenchMajesty/dns-sequence-classifier/cost"
	"github.com/FrenchMajesty/dns-sequence-classifier/knn"
	"github.com/FrenchMajesty/dns-sequence-classifier/sequence"
)

func mustParse(id, text string) *sequence.Sequence {
	s, err := sequence.Parse(id, text)
	if err != nil {
		log.Fatal(err)
	}
	return s
}

// Example shows basic usage of the classifier
func Example_basic() {
	entries := corpus.Flatten([]corpus.Group{
		corpus.NewGroup("example.com", mustParse("example-0", "S01 G04 S02 S01")),
		corpus.NewGroup("example.org", mustParse("example-1", "S03 G07 S03 G07 S03")),
	})

	result, err := classifier.Classify(context.Background(), mustParse("query", "S01 G04 S02"), entries, 1)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Verdict: %s\n", result.Verdict)
	fmt.Printf("Distance: %d\n", result.Neighbors[0].Distance)
	// Output:
	// Verdict: example.com
	// Distance: 20
}

// Example shows customizing the configuration and classifying for several k
func Example_customConfig() {
	model := cost.Default()
	model.SwapCost = 10

	clf, err := classifier.NewClassifier(classifier.Config{
		CostModel:  model,
		K:          3,
		TieBreaker: knn.Deterministic{},
		Workers:    2,
	}, corpus.Flatten([]corpus.Group{
		corpus.NewGroup("a.com", mustParse("a-0", "S01 G02 S01"), mustParse("a-1", "S01 G02 S01 S01")),
		corpus.NewGroup("b.com", mustParse("b-0", "S01 G02 S02")),
	}))
	if err != nil {
		log.Fatal(err)
	}

	results, err := clf.ClassifyRange(context.Background(), mustParse("query", "S01 G02 S01"), 1, 3)
	if err != nil {
		log.Fatal(err)
	}
	for _, r := range results {
		fmt.Printf("k=%d: %s (%s)\n", r.K, r.Verdict, r.Verdict.Kind)
	}
	// Output:
	// k=1: a.com (single)
	// k=2: a.com - b.com (tie)
	// k=3: a.com (single)
}
