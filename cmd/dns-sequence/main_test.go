package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	classifier "github.com/FrenchMajesty/dns-sequence-classifier"
	"github.com/FrenchMajesty/dns-sequence-classifier/cost"
	"github.com/FrenchMajesty/dns-sequence-classifier/knn"
	"github.com/FrenchMajesty/dns-sequence-classifier/pkg/testutil"
	"github.com/FrenchMajesty/dns-sequence-classifier/report"
)

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)

	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
cost:
  swap_cost: 3
k: 3
tie_break: deterministic
folds: 5
log_level: debug
`), 0644))

	cfg, err = loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, int64(3), cfg.Cost.SwapCost)
	assert.Equal(t, int64(cost.DefaultInsertSizeCost), cfg.Cost.InsertSizeCost)
	assert.Equal(t, 3, cfg.K)
	assert.Equal(t, 5, cfg.Folds)

	ccfg, err := cfg.classifierConfig()
	require.NoError(t, err)
	assert.Equal(t, knn.Deterministic{}, ccfg.TieBreaker)
	assert.Equal(t, cfg.Cost, ccfg.CostModel)
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := loadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("cost:\n  swap_cost: -1\n"), 0644))
	_, err = loadConfig(bad)
	assert.ErrorIs(t, err, cost.ErrInvalidModel)

	cfg := defaultConfig()
	cfg.TieBreak = "coin-flip"
	_, err = cfg.classifierConfig()
	assert.Error(t, err)
}

func TestLoadConfig_ExplicitK(t *testing.T) {
	tests := []struct {
		name   string
		yaml   string
		target error
	}{
		{"zero k", "k: 0\n", classifier.ErrInvalidK},
		{"negative k", "k: -2\n", classifier.ErrInvalidK},
		{"zero max k", "max_k: 0\n", classifier.ErrInvalidK},
		{"zero k step", "k_step: 0\n", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "run.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0644))

			_, err := loadConfig(path)
			require.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
		})
	}

	// keys left out keep the defaults
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("folds: 4\n"), 0644))
	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, classifier.DefaultK, cfg.K)
}

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn"} {
		logger, err := newLogger(level)
		require.NoError(t, err, level)
		assert.NotNil(t, logger)
	}
	_, err := newLogger("chatty")
	assert.Error(t, err)
}

func TestExplain(t *testing.T) {
	groups := testutil.Groups(t, map[string][]string{
		"a.com": {"S01 S02"},
		"b.com": {"S01 G02 S02"},
	})

	var buf bytes.Buffer
	require.NoError(t, explain(&buf, groups, "a.com-0, b.com-0", defaultConfig()))
	out := buf.String()
	assert.Contains(t, out, "distance 10 ")
	assert.Contains(t, out, "insert_gap")

	assert.Error(t, explain(&buf, groups, "a.com-0", defaultConfig()))
	assert.Error(t, explain(&buf, groups, "a.com-0,nope", defaultConfig()))
}

func TestLoadDiagnoser(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failed.txt")
	require.NoError(t, os.WriteFile(path, []byte("# failed loads\nbroken.dnstap\n\n"), 0644))

	d, err := loadDiagnoser(path)
	require.NoError(t, err)
	s := testutil.Sequence(t, "traces/broken.dnstap", "S03 G01 S04")
	assert.Equal(t, report.ReasonLoadFailed, d.Diagnose(s))
	assert.Equal(t, 1, d.Failed.Cardinality())
}
