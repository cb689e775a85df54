package http

import (
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/arb-engine/internal/arbitrage"
	"github.com/hxuan190/arb-engine/internal/config"
	"github.com/hxuan190/arb-engine/internal/domain"
	"github.com/hxuan190/arb-engine/internal/http/httputil"
)

// PaperHandler manages the simulated venues and trader accounts.
type PaperHandler struct {
	arbSvc *arbitrage.Service
}

func NewPaperHandler(arbSvc *arbitrage.Service) *PaperHandler {
	return &PaperHandler{arbSvc: arbSvc}
}

func (h *PaperHandler) Root() string {
	return "/paper"
}

func (h *PaperHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("/pools", h.listPools)
	pub.GET("/accounts/:address", h.getAccount)
	admin.POST("/pools", h.addPool)
	admin.POST("/faucet", h.fund)
}

// @Summary List paper pools
// @Tags paper
// @Produce json
// @Success 200 {object} httputil.Response
// @Router /api/v1/paper/pools [get]
func (h *PaperHandler) listPools(c *gin.Context) {
	httputil.HandleSuccess(c, h.arbSvc.PaperPools())
}

type AddPoolRequest struct {
	Venue    string `json:"venue" binding:"required" example:"orca"`
	MintA    string `json:"mintA" binding:"required"`
	MintB    string `json:"mintB" binding:"required"`
	ReserveA string `json:"reserveA" binding:"required" example:"1000000000"`
	ReserveB string `json:"reserveB" binding:"required" example:"1000000000"`
}

// @Summary Add paper pool
// @Tags paper
// @Accept json
// @Produce json
// @Param request body AddPoolRequest true "Pool"
// @Success 200 {object} httputil.Response
// @Router /api/v1/admin/paper/pools [post]
func (h *PaperHandler) addPool(c *gin.Context) {
	var req AddPoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	venue, err := domain.ParseVenue(req.Venue)
	if err != nil {
		httputil.HandleBadRequest(c, err.Error())
		return
	}
	spec := config.PaperPoolSpec{Venue: venue}
	if spec.MintA, err = httputil.ParsePublicKey("mintA", req.MintA); err != nil {
		httputil.HandleBadRequest(c, err.Error())
		return
	}
	if spec.MintB, err = httputil.ParsePublicKey("mintB", req.MintB); err != nil {
		httputil.HandleBadRequest(c, err.Error())
		return
	}
	if spec.ReserveA, err = httputil.ParseAmount("reserveA", req.ReserveA); err != nil {
		httputil.HandleBadRequest(c, err.Error())
		return
	}
	if spec.ReserveB, err = httputil.ParseAmount("reserveB", req.ReserveB); err != nil {
		httputil.HandleBadRequest(c, err.Error())
		return
	}

	pool, err := h.arbSvc.AddPaperPool(c.Request.Context(), spec)
	if err != nil {
		httputil.DomainError(c, err)
		return
	}
	httputil.HandleSuccess(c, pool)
}

type FundRequest struct {
	Mint   string `json:"mint" binding:"required"`
	Amount string `json:"amount" binding:"required" example:"1000000"`
}

// @Summary Fund trader account
// @Description Credits the engine authority's token account for a mint.
// @Tags paper
// @Accept json
// @Produce json
// @Param request body FundRequest true "Faucet request"
// @Success 200 {object} httputil.Response
// @Router /api/v1/admin/paper/faucet [post]
func (h *PaperHandler) fund(c *gin.Context) {
	var req FundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	mint, err := httputil.ParsePublicKey("mint", req.Mint)
	if err != nil {
		httputil.HandleBadRequest(c, err.Error())
		return
	}
	amount, err := httputil.ParseAmount("amount", req.Amount)
	if err != nil {
		httputil.HandleBadRequest(c, err.Error())
		return
	}
	account, err := h.arbSvc.FundTraderAccount(c.Request.Context(), mint, amount)
	if err != nil {
		httputil.DomainError(c, err)
		return
	}
	httputil.HandleSuccess(c, account)
}

// @Summary Get token account
// @Tags paper
// @Produce json
// @Param address path string true "Token account"
// @Success 200 {object} httputil.Response
// @Failure 404 {object} httputil.Response "Unknown token account"
// @Router /api/v1/paper/accounts/{address} [get]
func (h *PaperHandler) getAccount(c *gin.Context) {
	address, err := httputil.ParsePublicKey("account", c.Param("address"))
	if err != nil {
		httputil.HandleBadRequest(c, err.Error())
		return
	}
	account, err := h.arbSvc.TokenAccount(c.Request.Context(), address)
	if err != nil {
		httputil.LookupError(c, err)
		return
	}
	httputil.HandleSuccess(c, account)
}
