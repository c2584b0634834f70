package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	infralogger "github.com/jonesrussell/north-cloud/quality-engine/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/rules"
)

// ListRules handles GET /api/v1/rules
func (h *Handler) ListRules(c *gin.Context) {
	list, err := h.deps.Rules.ListRules(c.Request.Context())
	if err != nil {
		h.requestLogger(c).Error("Failed to list rules", infralogger.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to load rules")
		return
	}

	c.JSON(http.StatusOK, RuleListResponse{Rules: list, Total: len(list)})
}

// GetRule handles GET /api/v1/rules/:id
func (h *Handler) GetRule(c *gin.Context) {
	rule, err := h.deps.Rules.GetRule(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondRuleError(c, "load", err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

// CreateRule handles POST /api/v1/rules
func (h *Handler) CreateRule(c *gin.Context) {
	var rule domain.QualityRule
	if err := c.ShouldBindJSON(&rule); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	rule.ID = ""
	if rule.RuleType == "" {
		rule.RuleType = domain.RuleTypeCondition
	}
	if err := rules.ValidateRule(&rule, h.deps.Registry); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.deps.Rules.CreateRule(c.Request.Context(), &rule); err != nil {
		h.respondRuleError(c, "create", err)
		return
	}
	h.reload(c.Request.Context())

	h.requestLogger(c).Info("Rule created",
		infralogger.String("rule_id", rule.ID),
		infralogger.String("name", rule.Name),
	)
	c.JSON(http.StatusCreated, rule)
}

// UpdateRule handles PUT /api/v1/rules/:id
func (h *Handler) UpdateRule(c *gin.Context) {
	var rule domain.QualityRule
	if err := c.ShouldBindJSON(&rule); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	rule.ID = c.Param("id")
	if rule.RuleType == "" {
		rule.RuleType = domain.RuleTypeCondition
	}
	if err := rules.ValidateRule(&rule, h.deps.Registry); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.deps.Rules.UpdateRule(c.Request.Context(), &rule); err != nil {
		h.respondRuleError(c, "update", err)
		return
	}
	h.reload(c.Request.Context())

	h.requestLogger(c).Info("Rule updated", infralogger.String("rule_id", rule.ID))
	c.JSON(http.StatusOK, rule)
}

// DeleteRule handles DELETE /api/v1/rules/:id
func (h *Handler) DeleteRule(c *gin.Context) {
	id := c.Param("id")
	if err := h.deps.Rules.DeleteRule(c.Request.Context(), id); err != nil {
		h.respondRuleError(c, "delete", err)
		return
	}
	h.reload(c.Request.Context())

	h.requestLogger(c).Info("Rule deleted", infralogger.String("rule_id", id))
	c.Status(http.StatusNoContent)
}

// ReloadRules handles POST /api/v1/rules/reload
func (h *Handler) ReloadRules(c *gin.Context) {
	if h.deps.Reloader == nil {
		respondUnavailable(c, "rule reloader")
		return
	}

	snap, err := h.deps.Reloader.Reload(c.Request.Context())
	if err != nil {
		h.requestLogger(c).Error("Rule reload failed", infralogger.Error(err))
		respondError(c, http.StatusInternalServerError, "rule reload failed")
		return
	}

	c.JSON(http.StatusOK, ReloadResponse{
		Version:  snap.Version(),
		Rules:    snap.Len(),
		LoadedAt: snap.LoadedAt(),
	})
}

// reload refreshes the snapshot after an administrative write. The write has
// already succeeded, so a failure only delays the change until the next
// scheduled reload.
func (h *Handler) reload(ctx context.Context) {
	if h.deps.Reloader == nil {
		return
	}
	if _, err := h.deps.Reloader.Reload(ctx); err != nil {
		infralogger.FromContext(ctx, h.logger).Warn("Rule reload after write failed", infralogger.Error(err))
	}
}

func (h *Handler) respondRuleError(c *gin.Context, op string, err error) {
	if errors.Is(err, domain.ErrRuleNotFound) {
		respondError(c, http.StatusNotFound, "rule not found")
		return
	}
	h.requestLogger(c).Error("Rule "+op+" failed",
		infralogger.String("rule_id", c.Param("id")),
		infralogger.Error(err),
	)
	respondError(c, http.StatusInternalServerError, "failed to "+op+" rule")
}
