package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vaultiqx-sentinel/VeritrustX-sub000/internal/forensic"
	"github.com/vaultiqx-sentinel/VeritrustX-sub000/internal/llm"
	"github.com/vaultiqx-sentinel/VeritrustX-sub000/internal/proxyguard"
	"github.com/vaultiqx-sentinel/VeritrustX-sub000/internal/store"
)

const (
	defaultListLimit   = 50
	maxListLimit       = 500
	defaultMaxTokens   = 1024
	maxGenerateTokens  = 4096
	fieldThresholds    = "thresholds"
	fieldMalformedBody = "body"
)

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Score runs the pure pipeline. Nothing is persisted.
func (h *Handler) Score(c *gin.Context) {
	req, ok := h.bindScoreRequest(c)
	if !ok {
		return
	}

	th := h.deps.Thresholds.Merge(req.Thresholds)
	if err := th.Validate(); err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Field: fieldThresholds})
		return
	}

	if err := req.Sample.CheckFinite(); err != nil {
		h.writeScoringError(c, err)
		return
	}
	res, err := proxyguard.Evaluate(req.Sample, th)
	if err != nil {
		h.writeScoringError(c, err)
		return
	}
	h.deps.Metrics.ObserveResult(res)

	c.JSON(http.StatusOK, scoreResponse{Result: res, Thresholds: th})
}

// CreateAssessment scores and stores a sample and queues its narrative.
func (h *Handler) CreateAssessment(c *gin.Context) {
	req, ok := h.bindScoreRequest(c)
	if !ok {
		return
	}

	out, err := h.deps.Forensic.Evaluate(c.Request.Context(), forensic.Input{
		SubjectID:   req.SubjectID,
		SubjectName: req.SubjectName,
		Sample:      req.Sample,
		Thresholds:  req.Thresholds,
	})
	if err != nil {
		h.writeScoringError(c, err)
		return
	}

	resp := toAssessmentResponse(out.Assessment)
	resp.NarrativePending = out.NarrativeQueued
	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) ListAssessments(c *gin.Context) {
	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxListLimit {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "limit must be an integer between 1 and 500", Field: "limit"})
			return
		}
		limit = n
	}

	verdict := c.Query("verdict")
	switch proxyguard.Verdict(verdict) {
	case "", proxyguard.VerdictGrounded, proxyguard.VerdictTerminated:
	default:
		c.JSON(http.StatusBadRequest, errorResponse{Error: "verdict must be GROUNDED or TERMINATED", Field: "verdict"})
		return
	}

	rows, err := h.deps.Assessments.List(c.Request.Context(), store.QueryOpts{Limit: limit, Verdict: verdict})
	if err != nil {
		h.internalError(c, "list assessments", err)
		return
	}

	out := make([]assessmentResponse, len(rows))
	for i := range rows {
		out[i] = toAssessmentResponse(&rows[i])
	}
	c.JSON(http.StatusOK, gin.H{"assessments": out})
}

func (h *Handler) GetAssessment(c *gin.Context) {
	a, err := h.deps.Assessments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.internalError(c, "get assessment", err)
		return
	}
	if a == nil {
		c.JSON(http.StatusNotFound, errorResponse{Error: "assessment not found"})
		return
	}
	c.JSON(http.StatusOK, toAssessmentResponse(a))
}

// Generate forwards a free-form prompt to the configured provider.
func (h *Handler) Generate(c *gin.Context) {
	if h.deps.Provider == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: llm.ErrNotConfigured.Error()})
		return
	}

	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Field: fieldMalformedBody})
		return
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = defaultMaxTokens
	}
	if req.MaxTokens > maxGenerateTokens {
		req.MaxTokens = maxGenerateTokens
	}

	llmReq := llm.UserPrompt(req.System, req.Prompt)
	llmReq.MaxTokens = req.MaxTokens

	ctx := llm.WithPurpose(c.Request.Context(), llm.PurposePassthrough)
	resp, err := h.deps.Provider.Generate(ctx, llmReq)
	if err != nil {
		var rl *llm.ErrRateLimit
		if errors.As(err, &rl) {
			c.JSON(http.StatusTooManyRequests, errorResponse{Error: "upstream provider is rate limiting requests"})
			return
		}
		h.log.Warn("passthrough generation failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, errorResponse{Error: "generation failed"})
		return
	}

	c.JSON(http.StatusOK, generateResponse{
		Text:         resp.Text,
		Model:        resp.Model,
		StopReason:   resp.StopReason,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	})
}

func (h *Handler) LLMUsage(c *gin.Context) {
	resp := usageResponse{Purposes: []purposeUsage{}, Models: []modelUsage{}}
	if h.deps.Events == nil {
		c.JSON(http.StatusOK, resp)
		return
	}

	ctx := c.Request.Context()
	byPurpose, err := h.deps.Events.LLMUsageByPurpose(ctx)
	if err != nil {
		h.internalError(c, "usage by purpose", err)
		return
	}
	byModel, err := h.deps.Events.LLMUsageByModel(ctx)
	if err != nil {
		h.internalError(c, "usage by model", err)
		return
	}

	for _, u := range byPurpose {
		resp.Purposes = append(resp.Purposes, purposeUsage{
			Purpose:      u.Purpose,
			Calls:        u.Calls,
			InputTokens:  u.InputTokens,
			OutputTokens: u.OutputTokens,
			AvgLatencyMs: u.AvgLatencyMs,
		})
	}
	for _, u := range byModel {
		m := modelUsage{
			Model:        u.Model,
			Calls:        u.Calls,
			InputTokens:  u.InputTokens,
			OutputTokens: u.OutputTokens,
		}
		if cost, ok := llm.EstimateCost(u.Model, u.InputTokens, u.OutputTokens); ok {
			m.EstimatedCostUSD = &cost
		}
		resp.Models = append(resp.Models, m)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) bindScoreRequest(c *gin.Context) (*scoreRequest, bool) {
	var req scoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Field: fieldMalformedBody})
		return nil, false
	}
	if len(req.Gaze) == 0 && len(req.IrisX) > 0 {
		req.Gaze = proxyguard.TagIris(req.IrisX, h.deps.Iris)
	}
	return &req, true
}

// writeScoringError maps malformed telemetry to 422 and anything else to 500.
func (h *Handler) writeScoringError(c *gin.Context, err error) {
	var insufficient *proxyguard.InsufficientDataError
	var invalid *proxyguard.InvalidSampleError
	switch {
	case errors.As(err, &insufficient):
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Field: insufficient.Field})
	case errors.As(err, &invalid):
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Field: invalid.Field})
	case errors.Is(err, forensic.ErrInvalidThresholds):
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Field: fieldThresholds})
	default:
		h.internalError(c, "score sample", err)
	}
}

func (h *Handler) internalError(c *gin.Context, op string, err error) {
	h.log.Error(op+" failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
}
