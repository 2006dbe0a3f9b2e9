package http

import "github.com/fyrsmithlabs/middleout/internal/compression"

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status     string   `json:"status"`
	Version    string   `json:"version,omitempty"`
	Algorithms []string `json:"algorithms"`
}

// AlgorithmInfo describes one codec for GET /api/v1/algorithms.
type AlgorithmInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Lossy       bool   `json:"lossy"`
	Default     bool   `json:"default"`
}

// AlgorithmsResponse is the response body for GET /api/v1/algorithms.
type AlgorithmsResponse struct {
	Algorithms []AlgorithmInfo `json:"algorithms"`
}

// Options overrides the server's compression defaults for one request.
// Absent fields keep the defaults.
type Options struct {
	AggressionLevel    *int     `json:"aggressionLevel,omitempty"`
	PreserveWhitespace *bool    `json:"preserveWhitespace,omitempty"`
	TargetWeissman     *float64 `json:"targetWeissman,omitempty"`
}

func (o Options) apply(cfg compression.Config) compression.Config {
	if o.AggressionLevel != nil {
		cfg.AggressionLevel = *o.AggressionLevel
	}
	if o.PreserveWhitespace != nil {
		cfg.PreserveWhitespace = compression.Bool(*o.PreserveWhitespace)
	}
	if o.TargetWeissman != nil {
		cfg.TargetWeissman = *o.TargetWeissman
	}
	return cfg
}

// CompressRequest is the request body for POST /api/v1/compress.
type CompressRequest struct {
	Input     string `json:"input"`
	Algorithm string `json:"algorithm,omitempty"`
	Options
}

// DecompressRequest is the request body for POST /api/v1/decompress.
type DecompressRequest struct {
	Encoded string `json:"encoded"`
	Raw     bool   `json:"raw,omitempty"`
}

// ScoreRequest is the request body for POST /api/v1/score.
type ScoreRequest struct {
	Algorithm      string   `json:"algorithm"`
	OriginalSize   int      `json:"originalSize"`
	CompressedSize int      `json:"compressedSize"`
	TargetWeissman *float64 `json:"targetWeissman,omitempty"`
}

// ScoreResponse is the response body for POST /api/v1/score.
type ScoreResponse struct {
	Score     float64 `json:"weissmanScore"`
	Formatted string  `json:"formatted"`
}

// CompareRequest is the request body for POST /api/v1/compare.
type CompareRequest struct {
	Input string `json:"input"`
	Options
}

// CompareResponse lists results best score first.
type CompareResponse struct {
	Results []*compression.Result `json:"results"`
}
