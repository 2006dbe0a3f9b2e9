package compression

import (
	"fmt"
	"sort"
)

// Registry maps algorithm names to codecs. It is built once and read-only
// afterwards, so it is safe for concurrent use.
type Registry struct {
	codecs    map[Algorithm]Codec
	middleOut *MiddleOutCodec
}

// NewRegistry builds a registry from codecs. A middle-out codec is required
// because it is the fallback for unknown names and failed decodes.
func NewRegistry(codecs ...Codec) (*Registry, error) {
	r := &Registry{codecs: make(map[Algorithm]Codec, len(codecs))}

	for _, c := range codecs {
		if c == nil {
			return nil, fmt.Errorf("codec cannot be nil")
		}
		algo := c.Algorithm()
		if !algo.IsValid() {
			return nil, fmt.Errorf("codec has unsupported algorithm %q", algo)
		}
		if _, dup := r.codecs[algo]; dup {
			return nil, fmt.Errorf("duplicate codec for algorithm %q", algo)
		}
		r.codecs[algo] = c
		if mo, ok := c.(*MiddleOutCodec); ok {
			r.middleOut = mo
		}
	}

	if r.middleOut == nil {
		return nil, fmt.Errorf("registry requires a %s codec", AlgorithmMiddleOut)
	}
	return r, nil
}

// DefaultRegistry returns a registry with all five codecs.
func DefaultRegistry(opts ...TNTOption) *Registry {
	r, err := NewRegistry(
		NewRLECodec(),
		NewSTKCodec(),
		NewTNTCodec(opts...),
		NewZPHCodec(),
		NewMiddleOutCodec(),
	)
	if err != nil {
		// The built-in set is always valid.
		panic(fmt.Sprintf("compression: default registry: %v", err))
	}
	return r
}

// Lookup returns the codec registered under exactly name.
func (r *Registry) Lookup(name string) (Codec, bool) {
	c, ok := r.codecs[Algorithm(name)]
	return c, ok
}

// Resolve returns the codec for name, or the middle-out codec when name is
// empty, unknown, or not registered. It never fails.
func (r *Registry) Resolve(name string) Codec {
	if algo, ok := ParseAlgorithm(name); ok {
		if c, ok := r.codecs[algo]; ok {
			return c
		}
	}
	return r.middleOut
}

// MiddleOut returns the fallback codec.
func (r *Registry) MiddleOut() *MiddleOutCodec {
	return r.middleOut
}

// Algorithms returns the registered algorithms in a stable order.
func (r *Registry) Algorithms() []Algorithm {
	order := make(map[Algorithm]int)
	for i, a := range Algorithms() {
		order[a] = i
	}

	out := make([]Algorithm, 0, len(r.codecs))
	for a := range r.codecs {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return order[out[i]] < order[out[j]] })
	return out
}
