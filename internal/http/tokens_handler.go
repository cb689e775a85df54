package http

import (
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/arb-engine/internal/arbitrage"
	"github.com/hxuan190/arb-engine/internal/http/httputil"
)

type TokensHandler struct {
	arbSvc *arbitrage.Service
}

func NewTokensHandler(arbSvc *arbitrage.Service) *TokensHandler {
	return &TokensHandler{arbSvc: arbSvc}
}

func (h *TokensHandler) Root() string {
	return "/tokens"
}

func (h *TokensHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.POST("/candidates", h.fetchCandidates)
}

type CandidateTokensRequest struct {
	Requester string `json:"requester" binding:"required"`
}

// @Summary Request candidate tokens
// @Description Emits a CandidateTokensRequested marker. Discovery runs outside the engine.
// @Tags tokens
// @Accept json
// @Produce json
// @Param request body CandidateTokensRequest true "Requester"
// @Success 200 {object} httputil.Response
// @Router /api/v1/tokens/candidates [post]
func (h *TokensHandler) fetchCandidates(c *gin.Context) {
	var req CandidateTokensRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	requester, err := httputil.ParsePublicKey("requester", req.Requester)
	if err != nil {
		httputil.HandleBadRequest(c, err.Error())
		return
	}
	event, err := h.arbSvc.FetchCandidateTokens(c.Request.Context(), requester)
	if err != nil {
		httputil.DomainError(c, err)
		return
	}
	httputil.HandleSuccess(c, event)
}
