package http

import (
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/arb-engine/internal/arbitrage"
	"github.com/hxuan190/arb-engine/internal/http/httputil"
)

type SessionHandler struct {
	arbSvc *arbitrage.Service
}

func NewSessionHandler(arbSvc *arbitrage.Service) *SessionHandler {
	return &SessionHandler{arbSvc: arbSvc}
}

func (h *SessionHandler) Root() string {
	return "/session"
}

func (h *SessionHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.POST("", h.openSession)
	pub.GET("/:address", h.getSession)
}

type OpenSessionRequest struct {
	Owner string `json:"owner" binding:"required" example:"9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"`

	// Token account the route spends from. Its balance becomes the start balance.
	SourceAccount string `json:"sourceAccount" binding:"required"`

	// Requested input in smallest token units. Must not exceed the balance.
	Amount string `json:"amount" binding:"required" example:"1000000"`
}

// @Summary Open swap session
// @Description Snapshots the source account balance and opens a session for one route attempt.
// @Tags session
// @Accept json
// @Produce json
// @Param request body OpenSessionRequest true "Session request"
// @Success 200 {object} httputil.Response
// @Failure 400 {object} httputil.Response "Invalid input or amount above balance"
// @Router /api/v1/session [post]
func (h *SessionHandler) openSession(c *gin.Context) {
	var req OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	owner, err := httputil.ParsePublicKey("owner", req.Owner)
	if err != nil {
		httputil.HandleBadRequest(c, err.Error())
		return
	}
	source, err := httputil.ParsePublicKey("sourceAccount", req.SourceAccount)
	if err != nil {
		httputil.HandleBadRequest(c, err.Error())
		return
	}
	amount, err := httputil.ParseAmount("amount", req.Amount)
	if err != nil {
		httputil.HandleBadRequest(c, err.Error())
		return
	}

	state, err := h.arbSvc.OpenSession(c.Request.Context(), arbitrage.OpenSessionRequest{
		Owner:         owner,
		SourceAccount: source,
		Amount:        amount,
	})
	if err != nil {
		httputil.DomainError(c, err)
		return
	}
	httputil.HandleSuccess(c, state)
}

// @Summary Get swap session
// @Tags session
// @Produce json
// @Param address path string true "Session address"
// @Success 200 {object} httputil.Response
// @Failure 404 {object} httputil.Response "Unknown session"
// @Router /api/v1/session/{address} [get]
func (h *SessionHandler) getSession(c *gin.Context) {
	address, err := httputil.ParsePublicKey("session", c.Param("address"))
	if err != nil {
		httputil.HandleBadRequest(c, err.Error())
		return
	}
	state, err := h.arbSvc.GetSession(address)
	if err != nil {
		httputil.LookupError(c, err)
		return
	}
	httputil.HandleSuccess(c, state)
}
