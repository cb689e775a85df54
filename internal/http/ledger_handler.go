package http

import (
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/arb-engine/internal/arbitrage"
	"github.com/hxuan190/arb-engine/internal/http/httputil"
)

type LedgerHandler struct {
	arbSvc *arbitrage.Service
}

func NewLedgerHandler(arbSvc *arbitrage.Service) *LedgerHandler {
	return &LedgerHandler{arbSvc: arbSvc}
}

func (h *LedgerHandler) Root() string {
	return "/ledger"
}

func (h *LedgerHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("/:address", h.getLedger)
	pub.GET("/:address/stats", h.getStats)
	admin.POST("", h.initialize)
}

type InitializeRequest struct {
	// Ledger owner. Defaults to the engine authority.
	Authority string `json:"authority" example:"9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"`
}

// @Summary Initialize ledger
// @Description Creates the zeroed arbitrage ledger of an authority. Callable once per authority.
// @Tags ledger
// @Accept json
// @Produce json
// @Param request body InitializeRequest false "Ledger owner"
// @Success 200 {object} httputil.Response
// @Failure 400 {object} httputil.Response
// @Failure 409 {object} httputil.Response "Ledger already initialized"
// @Router /api/v1/admin/ledger [post]
func (h *LedgerHandler) initialize(c *gin.Context) {
	var req InitializeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httputil.HandleBadRequest(c, "invalid request body: "+err.Error())
			return
		}
	}

	authority := h.arbSvc.Authority()
	if req.Authority != "" {
		key, err := httputil.ParsePublicKey("authority", req.Authority)
		if err != nil {
			httputil.HandleBadRequest(c, err.Error())
			return
		}
		authority = key
	}

	state, err := h.arbSvc.Initialize(c.Request.Context(), authority)
	if err != nil {
		httputil.DomainError(c, err)
		return
	}
	httputil.HandleSuccess(c, state)
}

// @Summary Get ledger
// @Tags ledger
// @Produce json
// @Param address path string true "Ledger address"
// @Success 200 {object} httputil.Response
// @Failure 400 {object} httputil.Response
// @Failure 404 {object} httputil.Response "Unknown ledger"
// @Router /api/v1/ledger/{address} [get]
func (h *LedgerHandler) getLedger(c *gin.Context) {
	address, err := httputil.ParsePublicKey("ledger", c.Param("address"))
	if err != nil {
		httputil.HandleBadRequest(c, err.Error())
		return
	}
	state, err := h.arbSvc.GetLedger(address)
	if err != nil {
		httputil.LookupError(c, err)
		return
	}
	httputil.HandleSuccess(c, state)
}

// @Summary Ledger statistics
// @Description Total and average profit per trade in input-token atoms.
// @Tags ledger
// @Produce json
// @Param address path string true "Ledger address"
// @Success 200 {object} httputil.Response
// @Failure 404 {object} httputil.Response "Unknown ledger"
// @Router /api/v1/ledger/{address}/stats [get]
func (h *LedgerHandler) getStats(c *gin.Context) {
	address, err := httputil.ParsePublicKey("ledger", c.Param("address"))
	if err != nil {
		httputil.HandleBadRequest(c, err.Error())
		return
	}
	stats, err := h.arbSvc.LedgerStats(address)
	if err != nil {
		httputil.LookupError(c, err)
		return
	}
	httputil.HandleSuccess(c, stats)
}
