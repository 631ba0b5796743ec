package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"SodiumWatch/pkg/gateway"
	"SodiumWatch/pkg/monitor"
)

type Handlers struct {
	gateway *gateway.Service
	monitor *monitor.Monitor
	log     zerolog.Logger
}

func NewHandlers(gw *gateway.Service, mon *monitor.Monitor, log zerolog.Logger) *Handlers {
	return &Handlers{
		gateway: gw,
		monitor: mon,
		log:     log.With().Str("component", "handlers").Logger(),
	}
}

func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ReadinessCheck answers 503 until every monitored component is healthy.
func (h *Handlers) ReadinessCheck(c *gin.Context) {
	status, code := "ready", http.StatusOK
	if !h.monitor.Ready() {
		status, code = "not ready", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":     status,
		"components": h.monitor.GetAllStatus(),
	})
}

// AddMealRequest is the add-meal body. sodium_mg and recorded_at are kept
// raw so the gateway can coerce them.
type AddMealRequest struct {
	Name       string          `json:"name"`
	SodiumMG   json.RawMessage `json:"sodium_mg"`
	RecordedAt json.RawMessage `json:"recorded_at"`
	Portion    string          `json:"portion"`
}

// AddMeal resolves the caller before reading the body, so an anonymous
// request is answered 401 whatever it carries.
func (h *Handlers) AddMeal(c *gin.Context) {
	ctx := c.Request.Context()
	id, err := h.gateway.Authenticate(ctx, gateway.Credentials{
		Authorization: c.GetHeader("Authorization"),
		DeviceToken:   c.GetHeader("X-Device-Token"),
		SessionUserID: sessionUserID(c),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	var req AddMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body: " + err.Error()})
		return
	}

	res, err := h.gateway.RecordFor(ctx, id, gateway.MealInput{
		Name:       req.Name,
		SodiumMG:   req.SodiumMG,
		RecordedAt: rawString(req.RecordedAt),
		Portion:    req.Portion,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// rawString returns v when it is a JSON string. Any other value becomes ""
// and the gateway falls back to the current time.
func rawString(v json.RawMessage) string {
	var s string
	if len(v) == 0 || json.Unmarshal(v, &s) != nil {
		return ""
	}
	return s
}

func (h *Handlers) sessionIdentity(c *gin.Context) (*gateway.Identity, bool) {
	id, err := h.gateway.SessionIdentity(c.Request.Context(), sessionUserID(c))
	if err != nil {
		h.writeError(c, err)
		return nil, false
	}
	return id, true
}

func (h *Handlers) TodaySummary(c *gin.Context) {
	id, ok := h.sessionIdentity(c)
	if !ok {
		return
	}
	view, err := h.gateway.Today(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handlers) WeeklySummary(c *gin.Context) {
	id, ok := h.sessionIdentity(c)
	if !ok {
		return
	}
	view, err := h.gateway.Weekly(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handlers) Alerts(c *gin.Context) {
	id, ok := h.sessionIdentity(c)
	if !ok {
		return
	}
	view, err := h.gateway.Alerts(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handlers) MarkAlertRead(c *gin.Context) {
	id, ok := h.sessionIdentity(c)
	if !ok {
		return
	}
	if err := h.gateway.MarkAlertRead(c.Request.Context(), id, c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) TodayMeals(c *gin.Context) {
	id, ok := h.sessionIdentity(c)
	if !ok {
		return
	}
	view, err := h.gateway.TodayMeals(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handlers) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, gateway.ErrAuthenticationRequired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": gateway.ErrAuthenticationRequired.Error()})
	case errors.Is(err, gateway.ErrInvalidPayload):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, gateway.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": gateway.ErrNotFound.Error()})
	default:
		h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": gateway.ErrStorage.Error()})
	}
}
