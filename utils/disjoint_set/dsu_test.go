package disjoint_set

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSU_FindOrCreateAndUnion(t *testing.T) {
	d := NewDSU()

	a := d.FindOrCreate("youtube.com")
	b := d.FindOrCreate("google.com")
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, d.FindOrCreate("youtube.com"))
	assert.False(t, d.Connected(a, b))

	d.Union(a, b)
	assert.True(t, d.Connected(a, b))
	assert.Equal(t, 2, d.Size())
	assert.Equal(t, 1, d.CountSets())
}

func TestDSU_AddIsIdempotent(t *testing.T) {
	d := NewDSU()
	assert.Equal(t, d.Add("a.com"), d.Add("a.com"))
	assert.Equal(t, 1, d.Size())
}

func TestDSU_AliasKeepsTargetName(t *testing.T) {
	d := NewDSU()

	// give the domain a deeper tree so plain union by rank would pick it as root
	d.Alias("gmail.com", "mail.google.com")
	d.Alias("mail.google.com", "Google Inc.")
	d.Alias("youtube.com", "Google Inc.")
	d.Alias("netflix.com", "Netflix Inc.")

	tests := []struct {
		label string
		want  string
	}{
		{"gmail.com", "Google Inc."},
		{"mail.google.com", "Google Inc."},
		{"youtube.com", "Google Inc."},
		{"Google Inc.", "Google Inc."},
		{"netflix.com", "Netflix Inc."},
		{"unknown.org", "unknown.org"},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, d.Canonical(tt.label))
		})
	}

	assert.Equal(t, []string{"Google Inc.", "gmail.com", "mail.google.com", "youtube.com"}, d.Members("youtube.com"))
	assert.Nil(t, d.Members("unknown.org"))
	assert.Equal(t, 2, d.CountSets())
}

func TestDSU_AliasSameGroupNoop(t *testing.T) {
	d := NewDSU()
	d.Alias("a.com", "A")
	d.Alias("a.com", "A")
	d.Alias("A", "a.com")
	assert.Equal(t, "A", d.Canonical("a.com"))
	assert.Equal(t, 1, d.CountSets())
}

func TestDSU_JSONRoundTrip(t *testing.T) {
	d := NewDSU()
	d.Alias("gmail.com", "Google Inc.")
	d.Add("bing.com")

	data, err := json.Marshal(d)
	require.NoError(t, err)

	loaded := NewDSU()
	require.NoError(t, json.Unmarshal(data, loaded))

	assert.Equal(t, "Google Inc.", loaded.Canonical("gmail.com"))
	assert.Equal(t, "bing.com", loaded.Canonical("bing.com"))
	assert.Equal(t, d.Labels(), loaded.Labels())
	assert.Equal(t, d.FindLabel(d.FindOrCreate("gmail.com")), loaded.FindLabel(loaded.FindOrCreate("gmail.com")))
}

func TestDSU_UnmarshalRejectsInconsistent(t *testing.T) {
	d := NewDSU()
	err := json.Unmarshal([]byte(`{"root":[0,5],"rank":[0,0],"labels":{"a":0,"b":1}}`), d)
	assert.Error(t, err)

	err = json.Unmarshal([]byte(`{"root":[0],"rank":[0,0],"labels":{"a":0}}`), d)
	assert.Error(t, err)
}

func TestDSU_Concurrent(t *testing.T) {
	d := NewDSU()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, l := range []string{"a", "b", "c", "d"} {
				d.Alias(l, "root")
				_ = d.Canonical(l)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, d.Size())
	assert.Equal(t, 1, d.CountSets())
	assert.Equal(t, "root", d.Canonical("c"))
}
