package compression

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bogusCodec struct{ *RLECodec }

func (bogusCodec) Algorithm() Algorithm { return "lzma" }

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()

	assert.Equal(t, Algorithms(), r.Algorithms())
	for _, algo := range Algorithms() {
		c, ok := r.Lookup(string(algo))
		require.True(t, ok, algo)
		assert.Equal(t, algo, c.Algorithm())
	}
	assert.NotNil(t, r.MiddleOut())
}

func TestRegistry_Resolve(t *testing.T) {
	r := DefaultRegistry()

	tests := []struct {
		name string
		want Algorithm
	}{
		{"rle", AlgorithmRLE},
		{"stk", AlgorithmSTK},
		{"tnt", AlgorithmTNT},
		{"zph", AlgorithmZPH},
		{"middle-out", AlgorithmMiddleOut},
		{"", AlgorithmMiddleOut},
		{"lzma", AlgorithmMiddleOut},
		{"RLE", AlgorithmMiddleOut},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Resolve(tt.name).Algorithm())
		})
	}
}

func TestRegistry_LookupIsExact(t *testing.T) {
	r := DefaultRegistry()

	_, ok := r.Lookup("lzma")
	assert.False(t, ok)
	_, ok = r.Lookup(" rle")
	assert.False(t, ok)
}

func TestNewRegistry_Errors(t *testing.T) {
	tests := []struct {
		name   string
		codecs []Codec
		errMsg string
	}{
		{"missing middle-out", []Codec{NewRLECodec()}, "requires a middle-out codec"},
		{"nil codec", []Codec{NewMiddleOutCodec(), nil}, "cannot be nil"},
		{"duplicate", []Codec{NewMiddleOutCodec(), NewRLECodec(), NewRLECodec()}, "duplicate codec"},
		{"unsupported", []Codec{NewMiddleOutCodec(), bogusCodec{NewRLECodec()}}, "unsupported algorithm"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.codecs...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestRegistry_SubsetFallsBackToMiddleOut(t *testing.T) {
	r, err := NewRegistry(NewMiddleOutCodec(), NewZPHCodec())
	require.NoError(t, err)

	assert.Equal(t, []Algorithm{AlgorithmZPH, AlgorithmMiddleOut}, r.Algorithms())
	assert.Equal(t, AlgorithmMiddleOut, r.Resolve("rle").Algorithm())
}

func TestAlgorithm_Lossy(t *testing.T) {
	lossy := map[Algorithm]bool{
		AlgorithmRLE:       false,
		AlgorithmSTK:       false,
		AlgorithmTNT:       true,
		AlgorithmZPH:       false,
		AlgorithmMiddleOut: true,
	}
	for _, a := range Algorithms() {
		assert.Equal(t, lossy[a], a.Lossy(), a)
		assert.NotEmpty(t, a.Description(), a)
	}
}
