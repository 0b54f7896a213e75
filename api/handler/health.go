package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/tasktrail/api/transport"
	"github.com/fastygo/tasktrail/internal/infrastructure/monitor"
	"github.com/fastygo/tasktrail/pkg/httpcontext"
)

// HealthHandler serves the monitor's last snapshot. It never probes inline, so
// a slow store cannot stall the endpoint.
type HealthHandler struct {
	baseHandler
	monitor *monitor.Monitor
}

func NewHealthHandler(mon *monitor.Monitor, adapter *httpcontext.Adapter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		monitor:     mon,
	}
}

// @Summary Document store and cache reachability; 503 when a critical check is down
// @Tags health
// @Router /health [get]
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	snapshot := h.monitor.GetStatus()
	resp := transport.NewHealth(snapshot.Healthy, snapshot.Checks, snapshot.LastCheck)

	ctx.Response.Header.Set("Cache-Control", "no-store")
	code := http.StatusOK
	if !snapshot.Healthy {
		code = http.StatusServiceUnavailable
	}
	h.respondJSON(ctx, code, resp)
}
