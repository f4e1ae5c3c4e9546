package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prateekraiger/buildmeCV/internal/api/middleware"
	"github.com/prateekraiger/buildmeCV/internal/enhance"
	"github.com/prateekraiger/buildmeCV/internal/errcode"
	"github.com/prateekraiger/buildmeCV/internal/store"
)

// EnhanceHandler 负责 AI 润色请求。
type EnhanceHandler struct {
	stores   *store.Registry
	enhancer *enhance.Enhancer
	limiter  rateLimiter
}

// NewEnhanceHandler 构造 EnhanceHandler。counter 可为 nil（不限流）。
func NewEnhanceHandler(stores *store.Registry, enhancer *enhance.Enhancer, counter RateCounter, perMinute int) *EnhanceHandler {
	return &EnhanceHandler{
		stores:   stores,
		enhancer: enhancer,
		limiter: rateLimiter{
			counter: counter,
			prefix:  "enhance_rate:",
			limit:   int64(perMinute),
			window:  time.Minute,
		},
	}
}

type enhanceRequest struct {
	Target string       `json:"target" binding:"required"`
	Mode   enhance.Mode `json:"mode"`
}

type enhanceResponse struct {
	enhance.Result
	Code    int    `json:"code"`
	Version uint64 `json:"version"`
}

// Enhance POST /v1/enhance
// AI 失败仍返回 200，applied=false 并附带提示，原文不变。
func (h *EnhanceHandler) Enhance(c *gin.Context) {
	var req enhanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	target, err := enhance.ParseTarget(req.Target)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	mode := req.Mode
	switch mode {
	case "":
		mode = enhance.ModeDescription
		if target.Section == "" {
			mode = enhance.ModeSummary
		}
	case enhance.ModeDescription, enhance.ModeSummary:
	default:
		BadRequest(c, "unsupported mode")
		return
	}

	s, sid, ok := openStore(c, h.stores)
	if !ok {
		return
	}
	log := middleware.LoggerFromContext(c)

	allowed, err := h.limiter.allow(c.Request.Context(), sid)
	if err != nil {
		log.Warn("enhance rate counter unavailable", slog.Any("error", err))
	}
	if !allowed {
		Error(c, http.StatusTooManyRequests, errcode.Busy, "too many enhancement requests")
		return
	}

	res, err := h.enhancer.Enhance(c.Request.Context(), sid, s, target, mode)
	if err != nil {
		switch {
		case errors.Is(err, enhance.ErrDisabled):
			Error(c, http.StatusServiceUnavailable, errcode.EnhanceFailed, err.Error())
		case errors.Is(err, enhance.ErrBusy):
			Conflict(c, err.Error())
		case errors.Is(err, store.ErrItemNotFound):
			NotFound(c, err.Error())
		default:
			log.Error("enhance failed", slog.Any("error", err))
			Internal(c, "failed to enhance text")
		}
		return
	}

	resp := enhanceResponse{Result: res, Version: s.Version()}
	if !res.Applied {
		resp.Code = errcode.EnhanceFailed
	}
	c.JSON(http.StatusOK, resp)
}
