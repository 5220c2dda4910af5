package corpus_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/FrenchMajesty/dns-sequence-classifier/corpus"
	"github.com/FrenchMajesty/dns-sequence-classifier/utils/disjoint_set"
)

func TestFileAliasPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliases.json")
	p := corpus.NewFileAliasPersistence(path)

	empty, err := p.Load()
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Size())

	aliases := disjoint_set.NewDSU()
	aliases.Alias("gmail.com", "Google Inc.")
	require.NoError(t, p.Save(aliases))

	loaded, err := p.Load()
	require.NoError(t, err)
	assert.Equal(t, "Google Inc.", loaded.Canonical("gmail.com"))
}

func TestFileAliasPersistence_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliases.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := corpus.NewFileAliasPersistence(path).Load()
	assert.Error(t, err)
}

func TestReadConfusion(t *testing.T) {
	in := strings.Join([]string{
		"# domain, is_similar_to",
		"gmail.com,Google Inc.",
		"youtube.com, Google Inc.",
		"",
		"netflix.com,Netflix Inc.",
		"gmail.com,Netflix Inc.",
	}, "\n")

	core, logs := observer.New(zap.WarnLevel)
	aliases := disjoint_set.NewDSU()

	n, err := corpus.ReadConfusion(strings.NewReader(in), aliases, zap.New(core))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	assert.Equal(t, "Google Inc.", aliases.Canonical("gmail.com"))
	assert.Equal(t, "Google Inc.", aliases.Canonical("youtube.com"))
	assert.Equal(t, "Netflix Inc.", aliases.Canonical("netflix.com"))

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "gmail.com", logs.All()[0].ContextMap()["domain"])
}

func TestReadConfusion_Malformed(t *testing.T) {
	_, err := corpus.ReadConfusion(strings.NewReader("a.com,b.com,c.com\n"), disjoint_set.NewDSU(), nil)
	assert.Error(t, err)

	_, err = corpus.ReadConfusion(strings.NewReader("a.com,\n"), disjoint_set.NewDSU(), nil)
	assert.Error(t, err)
}

func TestLoadConfusion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "confusion.csv")
	require.NoError(t, os.WriteFile(path, []byte("www.a.com,a.com\n"), 0644))

	aliases := disjoint_set.NewDSU()
	n, err := corpus.LoadConfusion(path, aliases, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "a.com", aliases.Canonical("www.a.com"))

	_, err = corpus.LoadConfusion(filepath.Join(t.TempDir(), "missing.csv"), aliases, nil)
	assert.Error(t, err)
}
