package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	defaultResults = 5
	maxResults     = 20
)

// RecommendationRequest is the query-based recommendation request body.
type RecommendationRequest struct {
	Query        string `json:"query"`
	NResults     int    `json:"n_results"`
	Personalized bool   `json:"personalized"`
	UserID       string `json:"user_id"`
}

// HistoryRecommendationRequest is the history-based request body.
type HistoryRecommendationRequest struct {
	UserID   string `json:"user_id"`
	NResults int    `json:"n_results"`
}

func (s *Server) recommendation(c echo.Context) error {
	var req RecommendationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	if strings.TrimSpace(req.Query) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}

	start := time.Now()
	recs := s.engine.QueryBased(c.Request().Context(), req.Query, clampResults(req.NResults), req.Personalized, req.UserID)
	s.metrics.ObserveRequest("query", time.Since(start), len(recs))

	return c.JSON(http.StatusOK, recs)
}

func (s *Server) historyRecommendation(c echo.Context) error {
	var req HistoryRecommendationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	if strings.TrimSpace(req.UserID) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}

	start := time.Now()
	recs := s.engine.HistoryBased(c.Request().Context(), req.UserID, clampResults(req.NResults))
	s.metrics.ObserveRequest("history", time.Since(start), len(recs))

	return c.JSON(http.StatusOK, recs)
}

// clampResults applies the 1..20 bounds with a default of 5.
func clampResults(n int) int {
	if n <= 0 {
		return defaultResults
	}
	if n > maxResults {
		return maxResults
	}
	return n
}
