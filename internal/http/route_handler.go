package http

import (
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hxuan190/arb-engine/internal/arbitrage"
	"github.com/hxuan190/arb-engine/internal/arbitrage/services/events"
	"github.com/hxuan190/arb-engine/internal/domain"
	"github.com/hxuan190/arb-engine/internal/http/httputil"
)

type RouteHandler struct {
	arbSvc *arbitrage.Service
}

func NewRouteHandler(arbSvc *arbitrage.Service) *RouteHandler {
	return &RouteHandler{arbSvc: arbSvc}
}

func (h *RouteHandler) Root() string {
	return "/route"
}

func (h *RouteHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.POST("/execute", h.executeRoute)
	pub.GET("/executions", h.listExecutions)
	pub.GET("/events", h.listEvents)
}

type RouteStepRequest struct {
	// Venue name: orca, raydium, meteora, phoenix, lifinity or jupiter
	Venue string `json:"venue" binding:"required" example:"orca"`

	// Mint this hop delivers
	OutputToken string `json:"outputToken" binding:"required"`

	// Venue slippage floor in smallest units of OutputToken
	MinimumAmountOut string `json:"minimumAmountOut" example:"0"`

	// Optional market pin. Empty selects the venue default for OutputToken.
	Market string `json:"market,omitempty"`

	// Planner's expected input, recorded for audit only
	AmountIn string `json:"amountIn,omitempty"`
}

type ExecuteRouteRequest struct {
	Ledger  string `json:"ledger" binding:"required"`
	Session string `json:"session" binding:"required"`

	InputToken  string             `json:"inputToken"`
	OutputToken string             `json:"outputToken"`
	Steps       []RouteStepRequest `json:"steps"`

	// Base64 execute_arbitrage instruction data. Replaces the fields above when set.
	Instruction string `json:"instruction,omitempty"`
}

func (r *ExecuteRouteRequest) plan() (*domain.RoutePlan, error) {
	if r.Instruction != "" {
		data, err := base64.StdEncoding.DecodeString(r.Instruction)
		if err != nil {
			return nil, fmt.Errorf("invalid instruction: %w", err)
		}
		return domain.DecodeExecuteArbitrage(data)
	}

	inputToken, err := httputil.ParsePublicKey("inputToken", r.InputToken)
	if err != nil {
		return nil, err
	}
	outputToken, err := httputil.ParsePublicKey("outputToken", r.OutputToken)
	if err != nil {
		return nil, err
	}
	plan := &domain.RoutePlan{
		InputToken:  inputToken,
		OutputToken: outputToken,
		Steps:       make([]domain.ArbitrageStep, len(r.Steps)),
	}
	for i, s := range r.Steps {
		field := "steps[" + strconv.Itoa(i) + "]"
		venue, err := domain.ParseVenue(s.Venue)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", field, err)
		}
		step := domain.ArbitrageStep{Venue: venue}
		if step.OutputToken, err = httputil.ParsePublicKey(field+".outputToken", s.OutputToken); err != nil {
			return nil, err
		}
		if s.Market != "" {
			if step.Market, err = httputil.ParsePublicKey(field+".market", s.Market); err != nil {
				return nil, err
			}
		}
		if step.MinimumAmountOut, err = httputil.ParseAmount(field+".minimumAmountOut", s.MinimumAmountOut); err != nil {
			return nil, err
		}
		if step.AmountIn, err = httputil.ParseAmount(field+".amountIn", s.AmountIn); err != nil {
			return nil, err
		}
		plan.Steps[i] = step
	}
	return plan, nil
}

// @Summary Execute arbitrage route
// @Description Runs a planned route hop by hop for an open session and commits it only if
// @Description the final amount exceeds the start balance plus venue fees.
// @Description
// @Description **Error Handling:**
// @Description - 400: InvalidInput (bad plan, unknown market, token mismatch)
// @Description - 409: InvalidState (session closed or busy, accounts changed)
// @Description - 422: SlippageExceeded or NoProfit
// @Description - 502: ExternalCallFailed
// @Tags route
// @Accept json
// @Produce json
// @Param request body ExecuteRouteRequest true "Route plan"
// @Success 200 {object} httputil.Response
// @Failure 400 {object} httputil.Response
// @Failure 409 {object} httputil.Response
// @Failure 422 {object} httputil.Response
// @Failure 502 {object} httputil.Response
// @Router /api/v1/route/execute [post]
func (h *RouteHandler) executeRoute(c *gin.Context) {
	var req ExecuteRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	ledger, err := httputil.ParsePublicKey("ledger", req.Ledger)
	if err != nil {
		httputil.HandleBadRequest(c, err.Error())
		return
	}
	session, err := httputil.ParsePublicKey("session", req.Session)
	if err != nil {
		httputil.HandleBadRequest(c, err.Error())
		return
	}
	plan, err := req.plan()
	if err != nil {
		httputil.HandleBadRequest(c, err.Error())
		return
	}

	record, err := h.arbSvc.ExecuteRoute(c.Request.Context(), ledger, session, plan)
	if err != nil {
		httputil.DomainError(c, err)
		return
	}
	httputil.HandleSuccess(c, record)
}

// @Summary List executions
// @Description Accepted routes, most recent first.
// @Tags route
// @Produce json
// @Param limit query int false "Max records" default(50)
// @Success 200 {object} httputil.Response
// @Router /api/v1/route/executions [get]
func (h *RouteHandler) listExecutions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	records, err := h.arbSvc.ListExecutions(limit)
	if err != nil {
		httputil.HandleInternalError(c, "failed to list executions: "+err.Error())
		return
	}
	httputil.HandleSuccess(c, records)
}

type EventResponse struct {
	Name      string `json:"name"`
	EmittedAt int64  `json:"emittedAt"`

	// Program log line carrying the event
	Log string `json:"log" example:"Program data: ..."`
}

// @Summary List emitted events
// @Tags route
// @Produce json
// @Param limit query int false "Max records" default(50)
// @Success 200 {object} httputil.Response
// @Router /api/v1/route/events [get]
func (h *RouteHandler) listEvents(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	records, err := h.arbSvc.ListEvents(limit)
	if err != nil {
		httputil.HandleInternalError(c, "failed to list events: "+err.Error())
		return
	}
	out := make([]EventResponse, len(records))
	for i, r := range records {
		out[i] = EventResponse{
			Name:      r.Name,
			EmittedAt: r.EmittedAt.Unix(),
			Log:       events.LogLine(r.Data),
		}
	}
	httputil.HandleSuccess(c, out)
}
