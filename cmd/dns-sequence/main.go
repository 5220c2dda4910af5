// Command dns-sequence cross-validates the DNS sequence classifier on a labeled
// corpus, classifies query sequences against it, or explains the distance
// between two corpus sequences.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	classifier "github.com/FrenchMajesty/dns-sequence-classifier"
	"github.com/FrenchMajesty/dns-sequence-classifier/corpus"
	"github.com/FrenchMajesty/dns-sequence-classifier/distance"
	"github.com/FrenchMajesty/dns-sequence-classifier/evaluate"
	"github.com/FrenchMajesty/dns-sequence-classifier/internal/metrics"
	"github.com/FrenchMajesty/dns-sequence-classifier/report"
	"github.com/FrenchMajesty/dns-sequence-classifier/sequence"
	"github.com/FrenchMajesty/dns-sequence-classifier/utils/disjoint_set"
)

type options struct {
	config            string
	corpus            string
	aliases           string
	saveAliases       string
	confusion         string
	failed            string
	misclassification string
	statistics        string
	metrics           string
	query             string
	convert           string
	explain           string
}

func parseFlags() options {
	var o options
	flag.StringVar(&o.config, "config", os.Getenv("DNSSEQ_CONFIG"), "YAML run configuration")
	flag.StringVar(&o.corpus, "corpus", os.Getenv("DNSSEQ_CORPUS"), "labeled corpus (.json, .jsonl or .bin)")
	flag.StringVar(&o.aliases, "aliases", "", "label aliases as DSU JSON")
	flag.StringVar(&o.saveAliases, "save-aliases", "", "write the merged label aliases as DSU JSON")
	flag.StringVar(&o.confusion, "confusion", "", "CSV of domain,is_similar_to rows to merge into the aliases")
	flag.StringVar(&o.failed, "failed", "", "file listing sequence ids whose page load failed, one per line")
	flag.StringVar(&o.misclassification, "misclassifications", "", "CSV output for misclassified sequences (stdout when empty)")
	flag.StringVar(&o.statistics, "statistics", "", "CSV output for outcomes per k and label")
	flag.StringVar(&o.metrics, "metrics", "", "Prometheus textfile output")
	flag.StringVar(&o.query, "query", "", "classify the sequences of this corpus file instead of cross validating")
	flag.StringVar(&o.convert, "convert", "", "write the loaded corpus to this path and exit")
	flag.StringVar(&o.explain, "explain", "", "print the distance breakdown between two corpus sequence ids, given as a,b")
	flag.Parse()
	return o
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	opts := parseFlags()

	cfg, err := loadConfig(opts.config)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if lvl := os.Getenv("DNSSEQ_LOG_LEVEL"); lvl != "" {
		cfg.LogLevel = lvl
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, cfg, logger); err != nil {
		logger.Error("run failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, cfg Config, logger *zap.Logger) error {
	if opts.corpus == "" {
		return errors.New("missing -corpus")
	}

	groups, err := corpus.Load(opts.corpus)
	if err != nil {
		return err
	}
	logger.Info("corpus loaded",
		zap.String("path", opts.corpus),
		zap.Int("groups", len(groups)),
		zap.Int("sequences", corpus.Len(groups)),
	)

	if opts.explain != "" {
		return explain(os.Stdout, groups, opts.explain, cfg)
	}

	aliases, err := loadAliases(opts, logger)
	if err != nil {
		return err
	}
	if aliases != nil {
		groups = corpus.ApplyAliases(groups, aliases)
		logger.Info("aliases applied", zap.Int("labels", aliases.Size()), zap.Int("groups", aliases.CountSets()))
	}

	if opts.convert != "" {
		if err := corpus.Save(opts.convert, groups); err != nil {
			return err
		}
		logger.Info("corpus written", zap.String("path", opts.convert))
		return nil
	}

	ccfg, err := cfg.classifierConfig()
	if err != nil {
		return err
	}
	ccfg.Logger = logger

	var reg *metrics.Metrics
	if opts.metrics != "" {
		reg = metrics.New()
		ccfg.Metrics = reg
	}

	if opts.query != "" {
		err = classifyQueries(ctx, os.Stdout, ccfg, groups, opts.query)
	} else {
		err = crossValidate(ctx, ccfg, cfg, groups, opts, logger)
	}
	if err != nil {
		return err
	}

	if reg != nil {
		if err := reg.WriteTextfile(opts.metrics); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return nil
}

// loadAliases builds the alias set from the DSU file and confusion CSV, if any
func loadAliases(opts options, logger *zap.Logger) (*disjoint_set.DSU, error) {
	if opts.aliases == "" && opts.confusion == "" {
		return nil, nil
	}

	aliases := disjoint_set.NewDSU()
	if opts.aliases != "" {
		loaded, err := corpus.NewFileAliasPersistence(opts.aliases).Load()
		if err != nil {
			return nil, err
		}
		aliases = loaded
	}

	if opts.confusion != "" {
		n, err := corpus.LoadConfusion(opts.confusion, aliases, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("confusion domains loaded", zap.String("path", opts.confusion), zap.Int("rows", n))
	}

	if opts.saveAliases != "" {
		if err := corpus.NewFileAliasPersistence(opts.saveAliases).Save(aliases); err != nil {
			return nil, err
		}
	}
	return aliases, nil
}

func crossValidate(ctx context.Context, ccfg classifier.Config, cfg Config, groups []corpus.Group, opts options, logger *zap.Logger) error {
	var out io.Writer = os.Stdout
	if opts.misclassification != "" {
		f, err := os.Create(opts.misclassification)
		if err != nil {
			return fmt.Errorf("cannot open writer for misclassifications: %w", err)
		}
		defer f.Close()
		out = f
	}
	rows := report.NewWriter(out)

	diagnoser, err := loadDiagnoser(opts.failed)
	if err != nil {
		return err
	}

	res, err := evaluate.Run(ctx, groups, evaluate.Options{
		Classifier: ccfg,
		Folds:      cfg.Folds,
		MaxK:       cfg.MaxK,
		KStep:      cfg.KStep,
		Sink:       rows,
		Diagnoser:  diagnoser,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	if err := rows.Flush(); err != nil {
		return fmt.Errorf("failed to write misclassifications: %w", err)
	}

	for _, s := range res.Summaries {
		logger.Info("accuracy",
			zap.Int("k", s.K),
			zap.Int("correct", s.Correct),
			zap.Int("undetermined", s.Undetermined),
			zap.Int("wrong", s.Wrong),
			zap.Float64("mean", s.MeanAccuracy),
			zap.Float64("stddev", s.StdDevAccuracy),
			zap.Ints("correct_at_least", res.Collector.CorrectAtLeast(s.K)),
		)
	}

	if opts.statistics != "" {
		f, err := os.Create(opts.statistics)
		if err != nil {
			return fmt.Errorf("cannot open statistics file: %w", err)
		}
		defer f.Close()
		if err := res.Collector.WriteCSV(f); err != nil {
			return err
		}
	}
	return nil
}

func loadDiagnoser(path string) (*report.Diagnoser, error) {
	if path == "" {
		return report.NewDiagnoser(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read failed ids from file %s: %w", path, err)
	}

	var ids []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" && !strings.HasPrefix(line, "#") {
			ids = append(ids, line)
		}
	}
	return report.NewDiagnoser(ids...), nil
}

// classifyQueries classifies every sequence of the query corpus and prints one
// JSON result per line
func classifyQueries(ctx context.Context, w io.Writer, ccfg classifier.Config, groups []corpus.Group, path string) error {
	queryGroups, err := corpus.Load(path)
	if err != nil {
		return err
	}
	var queries []*sequence.Sequence
	for _, e := range corpus.Flatten(queryGroups) {
		queries = append(queries, e.Sequence)
	}

	c, err := classifier.NewClassifier(ccfg, corpus.Flatten(groups))
	if err != nil {
		return err
	}

	k := ccfg.K
	if k == 0 {
		k = classifier.DefaultK
	}
	results, err := c.ClassifyAll(ctx, queries, k)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	for _, r := range results {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("failed to write result for %s: %w", r.QueryID, err)
		}
	}
	return nil
}

func explain(w io.Writer, groups []corpus.Group, pair string, cfg Config) error {
	ids := strings.Split(pair, ",")
	if len(ids) != 2 {
		return fmt.Errorf("-explain needs two ids separated by a comma, got %q", pair)
	}

	byID := make(map[string]*sequence.Sequence)
	for _, e := range corpus.Flatten(groups) {
		byID[e.Sequence.ID()] = e.Sequence
	}
	a, ok := byID[strings.TrimSpace(ids[0])]
	if !ok {
		return fmt.Errorf("unknown sequence %q", ids[0])
	}
	b, ok := byID[strings.TrimSpace(ids[1])]
	if !ok {
		return fmt.Errorf("unknown sequence %q", ids[1])
	}

	bd := distance.Explain(a, b, cfg.Cost)
	fmt.Fprintf(w, "%s: %s\n%s: %s\n", a.ID(), a, b.ID(), b)
	fmt.Fprintf(w, "distance %d (normalized %.3f)\n", bd.Total, distance.Normalized(bd.Total, a, b))
	for _, cat := range bd.Categories() {
		fmt.Fprintf(w, "  %-24s %d\n", cat, bd.Costs[cat])
	}
	for _, op := range bd.Operations {
		if op.Kind == distance.OpMatch {
			continue
		}
		fmt.Fprintf(w, "  %-10s %s -> %s (%d)\n", op.Kind, op.From, op.To, op.Cost)
	}
	return nil
}
