package http

import (
	"errors"
	"net/http"

	"github.com/fyrsmithlabs/middleout/internal/compression"
	"github.com/fyrsmithlabs/middleout/internal/envelope"
	"github.com/fyrsmithlabs/middleout/internal/logging"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	algos := s.svc.Algorithms()
	names := make([]string, len(algos))
	for i, a := range algos {
		names[i] = string(a)
	}
	return c.JSON(http.StatusOK, HealthResponse{
		Status:     "ok",
		Version:    s.version,
		Algorithms: names,
	})
}

func (s *Server) handleAlgorithms(c echo.Context) error {
	def := s.Defaults().Algorithm
	if def == "" {
		def = compression.DefaultAlgorithm
	}

	resp := AlgorithmsResponse{}
	for _, a := range s.svc.Algorithms() {
		resp.Algorithms = append(resp.Algorithms, AlgorithmInfo{
			Name:        string(a),
			Description: a.Description(),
			Lossy:       a.Lossy(),
			Default:     a == def,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleCompress(c echo.Context) error {
	ctx := c.Request().Context()

	var req CompressRequest
	if err := c.Bind(&req); err != nil {
		logging.FromContext(ctx).Warn(ctx, "invalid compress request", zap.Error(err))
		return bindError(err)
	}

	cfg := req.Options.apply(s.Defaults())
	result, err := s.svc.Compress(ctx, req.Input, req.Algorithm, cfg)
	if err != nil {
		return s.serviceError(c, err)
	}

	s.prom.Operations.WithLabelValues("compress", string(result.Algorithm)).Inc()
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleDecompress(c echo.Context) error {
	ctx := c.Request().Context()

	var req DecompressRequest
	if err := c.Bind(&req); err != nil {
		logging.FromContext(ctx).Warn(ctx, "invalid decompress request", zap.Error(err))
		return bindError(err)
	}

	cfg := s.Defaults()
	cfg.Raw = req.Raw
	decoded := s.svc.Decode(ctx, req.Encoded, cfg)

	if decoded.Degraded {
		s.prom.Fallbacks.WithLabelValues(decoded.Reason).Inc()
	} else {
		s.prom.Operations.WithLabelValues("decompress", decoded.Algorithm).Inc()
	}
	return c.JSON(http.StatusOK, decoded)
}

func (s *Server) handleScore(c echo.Context) error {
	var req ScoreRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}

	algo, ok := compression.ParseAlgorithm(req.Algorithm)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown algorithm")
	}
	if req.OriginalSize < 0 || req.CompressedSize < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "sizes cannot be negative")
	}

	target := s.Defaults().TargetWeissman
	if req.TargetWeissman != nil {
		if *req.TargetWeissman < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "targetWeissman cannot be negative")
		}
		target = *req.TargetWeissman
	}

	score := s.svc.EstimateScore(string(algo), req.OriginalSize, req.CompressedSize, target)
	s.prom.Operations.WithLabelValues("score", string(algo)).Inc()
	return c.JSON(http.StatusOK, ScoreResponse{
		Score:     score,
		Formatted: envelope.FormatScore(score),
	})
}

func (s *Server) handleCompare(c echo.Context) error {
	ctx := c.Request().Context()

	var req CompareRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}

	results, err := s.svc.Compare(ctx, req.Input, req.Options.apply(s.Defaults()))
	if err != nil {
		return s.serviceError(c, err)
	}

	for _, r := range results {
		s.prom.Operations.WithLabelValues("compare", string(r.Algorithm)).Inc()
	}
	return c.JSON(http.StatusOK, CompareResponse{Results: results})
}

// bindError keeps echo's own status (413 from the body limit, 415 for an
// unsupported content type) and reports everything else as a bad body.
func bindError(err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code != http.StatusBadRequest {
		return he
	}
	return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
}

func (s *Server) serviceError(c echo.Context, err error) error {
	if errors.Is(err, compression.ErrInvalidConfig) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	logging.FromContext(ctx).Error(ctx, "compression failed", zap.Error(err))
	return echo.NewHTTPError(http.StatusInternalServerError, "compression failed")
}
