package handler

//go:generate mockgen -source=barter_handler.go -destination=mock_handler.go -package=handler

import (
	"context"
	"fmt"
	"net/http"

	barter "barter-exchange/internal/barterService"
	model "barter-exchange/internal/models"
	"barter-exchange/services/barter/helpers"
	"barter-exchange/utils"

	"github.com/gin-gonic/gin"
)

type BarterServiceInterface interface {
	SubmitProposal(ctx context.Context, session model.Session, draft model.ProposalDraft) (model.BarterProposal, error)
	EvaluateEquity(ctx context.Context, session model.Session, offeredProductID, requestedProductID string) (model.EquityVerdict, error)
	WithinThreshold(verdict model.EquityVerdict) bool
	RespondToProposal(ctx context.Context, session model.Session, proposalID string, action model.ResponseAction) (model.BarterProposal, error)
	CreateCounterProposal(ctx context.Context, session model.Session, originalID string, draft model.ProposalDraft) (model.BarterProposal, model.BarterProposal, error)
	CounterDraft(ctx context.Context, session model.Session, originalID string) (model.ProposalDraft, error)
	GetProposal(ctx context.Context, session model.Session, proposalID string) (model.BarterProposal, error)
	ListProposals(ctx context.Context, session model.Session, status model.ProposalStatus) ([]model.BarterProposal, error)
}

type BarterHandler struct {
	service BarterServiceInterface
}

func NewBarterHandler(service BarterServiceInterface) *BarterHandler {
	return &BarterHandler{service: service}
}

// CreateProposalHandler handles POST /barter
func (h *BarterHandler) CreateProposalHandler(c *gin.Context) {
	var req helpers.CreateProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateProposalHandler", err)
		return
	}
	draft, err := req.ToDraft()
	if err != nil {
		helpers.HandleBindError(c, "CreateProposalHandler", err)
		return
	}

	session := helpers.SessionFromContext(c)
	proposal, err := h.service.SubmitProposal(c.Request.Context(), session, draft)
	if err != nil {
		helpers.HandleServiceError(c, "CreateProposalHandler", err, map[string]any{
			"proposer_id":  session.UserID,
			"recipient_id": req.RecipientID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewProposalResponse(proposal), "barter proposal created successfully")
	helpers.LogSuccess("CreateProposalHandler", "barter proposal created successfully", map[string]any{
		"proposal_id":  proposal.ProposalID,
		"proposer_id":  proposal.ProposerID,
		"recipient_id": proposal.RecipientID,
	})
}

// ListProposalsHandler handles GET /barter[?status=]
func (h *BarterHandler) ListProposalsHandler(c *gin.Context) {
	session := helpers.SessionFromContext(c)
	status := model.ProposalStatus(c.Query("status"))

	proposals, err := h.service.ListProposals(c.Request.Context(), session, status)
	if err != nil {
		helpers.HandleServiceError(c, "ListProposalsHandler", err, map[string]any{"user_id": session.UserID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewProposalResponses(proposals), "barter proposals retrieved successfully")
	helpers.LogSuccess("ListProposalsHandler", "barter proposals retrieved successfully", map[string]any{
		"user_id": session.UserID,
		"status":  status,
		"count":   len(proposals),
	})
}

// GetProposalHandler handles GET /barter/:proposal_id
func (h *BarterHandler) GetProposalHandler(c *gin.Context) {
	session := helpers.SessionFromContext(c)
	proposalID := c.Param("proposal_id")

	proposal, err := h.service.GetProposal(c.Request.Context(), session, proposalID)
	if err != nil {
		helpers.HandleServiceError(c, "GetProposalHandler", err, map[string]any{"proposal_id": proposalID, "user_id": session.UserID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewProposalResponse(proposal), "barter proposal retrieved successfully")
}

// UpdateStatusHandler handles PUT /barter/:proposal_id/status
func (h *BarterHandler) UpdateStatusHandler(c *gin.Context) {
	var req helpers.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "UpdateStatusHandler", err)
		return
	}

	action, ok := barter.ActionForStatus(model.ProposalStatus(req.Status))
	if !ok {
		err := fmt.Errorf("status %q cannot be set directly", req.Status)
		if model.ProposalStatus(req.Status) == model.StatusCountered {
			err = fmt.Errorf("%w; use POST /barter/:proposal_id/counter", err)
		}
		helpers.HandleBindError(c, "UpdateStatusHandler", err)
		return
	}

	session := helpers.SessionFromContext(c)
	proposalID := c.Param("proposal_id")

	proposal, err := h.service.RespondToProposal(c.Request.Context(), session, proposalID, action)
	if err != nil {
		helpers.HandleServiceError(c, "UpdateStatusHandler", err, map[string]any{
			"proposal_id": proposalID,
			"user_id":     session.UserID,
			"action":      action,
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewProposalResponse(proposal), "barter proposal "+string(proposal.Status))
	helpers.LogSuccess("UpdateStatusHandler", "barter proposal status updated", map[string]any{
		"proposal_id": proposal.ProposalID,
		"user_id":     session.UserID,
		"status":      proposal.Status,
	})
}

// CounterProposalHandler handles POST /barter/:proposal_id/counter
func (h *BarterHandler) CounterProposalHandler(c *gin.Context) {
	var req helpers.CounterProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CounterProposalHandler", err)
		return
	}
	draft, err := req.ToDraft()
	if err != nil {
		helpers.HandleBindError(c, "CounterProposalHandler", err)
		return
	}

	session := helpers.SessionFromContext(c)
	originalID := c.Param("proposal_id")

	original, counter, err := h.service.CreateCounterProposal(c.Request.Context(), session, originalID, draft)
	if err != nil {
		helpers.HandleServiceError(c, "CounterProposalHandler", err, map[string]any{
			"proposal_id": originalID,
			"user_id":     session.UserID,
		})
		return
	}

	resp := helpers.CounterProposalResponse{
		Original:        helpers.NewProposalResponse(original),
		CounterProposal: helpers.NewProposalResponse(counter),
	}
	utils.JSONResponse(c, http.StatusCreated, resp, "counter-proposal created successfully")
	helpers.LogSuccess("CounterProposalHandler", "counter-proposal created successfully", map[string]any{
		"proposal_id":         original.ProposalID,
		"counter_proposal_id": counter.ProposalID,
		"user_id":             session.UserID,
	})
}

// CounterDraftHandler handles GET /barter/:proposal_id/counter-draft
func (h *BarterHandler) CounterDraftHandler(c *gin.Context) {
	session := helpers.SessionFromContext(c)
	originalID := c.Param("proposal_id")

	draft, err := h.service.CounterDraft(c.Request.Context(), session, originalID)
	if err != nil {
		helpers.HandleServiceError(c, "CounterDraftHandler", err, map[string]any{"proposal_id": originalID, "user_id": session.UserID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewCounterDraftResponse(draft), "counter-proposal draft prepared")
}

// ValueComparisonHandler handles GET /barter/value-comparison?product1_id=&product2_id=
func (h *BarterHandler) ValueComparisonHandler(c *gin.Context) {
	session := helpers.SessionFromContext(c)
	offeredID := c.Query("product1_id")
	requestedID := c.Query("product2_id")

	verdict, err := h.service.EvaluateEquity(c.Request.Context(), session, offeredID, requestedID)
	if err != nil {
		helpers.HandleServiceError(c, "ValueComparisonHandler", err, map[string]any{
			"product1_id": offeredID,
			"product2_id": requestedID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewEquityResponse(verdict, h.service.WithinThreshold(verdict)), "value comparison retrieved successfully")
}
