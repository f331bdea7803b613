package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aidosq/jumys-deals/internal/http/middleware"
	"github.com/aidosq/jumys-deals/internal/model"
	"github.com/aidosq/jumys-deals/internal/service"
)

type Handler struct {
	proposals     *service.ProposalService
	escrows       *service.EscrowService
	contracts     *service.ContractService
	notifications *service.NotificationService
	exports       *service.ExportService
	log           zerolog.Logger
}

func NewHandler(
	proposals *service.ProposalService,
	escrows *service.EscrowService,
	contracts *service.ContractService,
	notifications *service.NotificationService,
	exports *service.ExportService,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		proposals:     proposals,
		escrows:       escrows,
		contracts:     contracts,
		notifications: notifications,
		exports:       exports,
		log:           log,
	}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	protected := router.Group("/")
	protected.Use(authMiddleware)

	protected.POST("/proposals", h.submitProposal)
	protected.POST("/proposals/:id/resolve", h.resolveProposal)

	protected.POST("/escrows/:id/fund", h.escrowTransition(h.escrows.Fund))
	protected.POST("/escrows/:id/complete-work", h.escrowTransition(h.escrows.CompleteWork))
	protected.POST("/escrows/:id/release", h.escrowTransition(h.escrows.Release))
	protected.POST("/escrows/:id/dispute", h.escrowTransition(h.escrows.Dispute))
	protected.POST("/escrows/:id/refund", h.escrowTransition(h.escrows.Refund))
	protected.POST("/escrows/:id/resolve-dispute", h.resolveDispute)
	protected.POST("/escrows/export", h.exportLedger)

	protected.POST("/contracts/:id/complete", h.completeContract)
	protected.GET("/contracts/:id/document", h.contractDocument)

	protected.GET("/notifications", h.listNotifications)
	protected.POST("/notifications/:id/read", h.markNotificationRead)
}

type submitProposalRequest struct {
	ProjectID    string  `json:"project_id"`
	FreelancerID string  `json:"freelancer_id"`
	Price        float64 `json:"price" binding:"required"`
	Kind         string  `json:"kind" binding:"required"`
	CoverLetter  string  `json:"cover_letter"`
}

func (h *Handler) submitProposal(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req submitProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := service.SubmitProposalInput{
		Price:       req.Price,
		Kind:        model.ProposalKind(strings.ToLower(strings.TrimSpace(req.Kind))),
		CoverLetter: req.CoverLetter,
		Principal:   principal,
	}
	if req.ProjectID != "" {
		projectID, err := uuid.Parse(strings.TrimSpace(req.ProjectID))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project_id"})
			return
		}
		input.ProjectID = &projectID
	}
	if req.FreelancerID != "" {
		freelancerID, err := uuid.Parse(strings.TrimSpace(req.FreelancerID))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid freelancer_id"})
			return
		}
		input.FreelancerID = freelancerID
	}

	proposal, err := h.proposals.Submit(c.Request.Context(), input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": proposal.ID, "status": proposal.Status})
}

type resolveProposalRequest struct {
	Action string `json:"action" binding:"required"`
}

func (h *Handler) resolveProposal(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	proposalID, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req resolveProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	action := service.ResolveAction(strings.ToLower(strings.TrimSpace(req.Action)))
	result, err := h.proposals.Resolve(c.Request.Context(), proposalID, action, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response := gin.H{"status": result.Status}
	if result.ContractID != nil {
		response["contract_id"] = result.ContractID
	}
	if result.EscrowID != nil {
		response["escrow_id"] = result.EscrowID
	}
	c.JSON(http.StatusOK, response)
}

type escrowTransitionFunc func(ctx context.Context, escrowID uuid.UUID, principal model.Principal) (model.EscrowStatus, error)

func (h *Handler) escrowTransition(transition escrowTransitionFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := middleware.MustPrincipal(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
			return
		}

		escrowID, err := parseID(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		status, err := transition(c.Request.Context(), escrowID, principal)
		if err != nil {
			h.handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": status})
	}
}

type resolveDisputeRequest struct {
	Outcome string `json:"outcome" binding:"required"`
}

func (h *Handler) resolveDispute(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	escrowID, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req resolveDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome := service.DisputeOutcome(strings.ToLower(strings.TrimSpace(req.Outcome)))
	status, err := h.escrows.ResolveDispute(c.Request.Context(), escrowID, outcome, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

func (h *Handler) completeContract(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	contractID, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	status, err := h.contracts.Complete(c.Request.Context(), contractID, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

func (h *Handler) contractDocument(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	contractID, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	result, err := h.exports.ContractDocument(c.Request.Context(), contractID, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/pdf", result.Content)
}

type exportLedgerRequest struct {
	PeriodStart string `json:"period_start" binding:"required"`
	PeriodEnd   string `json:"period_end" binding:"required"`
}

func (h *Handler) exportLedger(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req exportLedgerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start, err := parseDate(req.PeriodStart)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid period_start"})
		return
	}
	end, err := parseDate(req.PeriodEnd)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid period_end"})
		return
	}

	result, err := h.exports.EscrowLedger(c.Request.Context(), service.LedgerExportInput{
		PeriodStart: start,
		PeriodEnd:   end,
		Principal:   principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", result.Content)
}

func (h *Handler) listNotifications(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	rows, err := h.notifications.List(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": rows})
}

func (h *Handler) markNotificationRead(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	notificationID, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.notifications.MarkRead(c.Request.Context(), notificationID, principal); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrAlreadyProcessed),
		errors.Is(err, service.ErrAlreadyCompleted),
		errors.Is(err, service.ErrInvalidStateTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Msg("operation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parseID(c *gin.Context) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(c.Param("id")))
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, service.ErrInvalidInput
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, service.ErrInvalidInput
}
