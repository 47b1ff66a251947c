package api

import (
	"errors"
	"time"

	"github.com/labstack/echo/v4"

	"CascadeWatch/internal/domain/models"
	"CascadeWatch/internal/domain/service"
	"CascadeWatch/internal/service/metrics"
	"CascadeWatch/internal/service/ratelimit"
	"CascadeWatch/internal/usecase"
	xhttp "CascadeWatch/pkg/http"
	xlogger "CascadeWatch/pkg/logger"
)

// StatusReader is the read side of usecase.Registry.
type StatusReader interface {
	Status(symbol string) (models.CascadeStatus, bool)
	Statuses() []models.CascadeStatus
}

type CascadeEchoHandler struct {
	logger   *xlogger.Logger
	statuses StatusReader
	gate     service.Gate
	control  *usecase.ControlUseCase
	limiter  *ratelimit.Limiter
}

func NewCascadeEchoHandler(logger *xlogger.Logger, statuses StatusReader, gate service.Gate, control *usecase.ControlUseCase, limiter *ratelimit.Limiter) *CascadeEchoHandler {
	return &CascadeEchoHandler{logger: logger, statuses: statuses, gate: gate, control: control, limiter: limiter}
}

func (h *CascadeEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/cascade")
	g.GET("/status", h.Status)
	g.GET("/statuses", h.Statuses)
	g.GET("/gate", h.Gate)
	g.GET("/auto", h.GetAuto)
	g.PUT("/auto", h.SetAuto, limitByIP(h.limiter, "set_auto"))
	g.POST("/symbols", h.Watch, limitByIP(h.limiter, "watch"))
	g.DELETE("/symbols/:symbol", h.Unwatch, limitByIP(h.limiter, "unwatch"))
}

func observe(endpoint string, start time.Time) {
	metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

func (h *CascadeEchoHandler) Status(c echo.Context) error {
	defer observe("status", time.Now())
	req := &models.SymbolQuery{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.APIErrors.WithLabelValues("status", "bad_request").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}

	symbol := usecase.NormalizeSymbol(req.Symbol)
	st, ok := h.statuses.Status(symbol)
	if !ok {
		metrics.APIErrors.WithLabelValues("status", "not_found").Inc()
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("symbol %s is not watched", symbol))
	}
	return xhttp.SuccessResponse(c, st)
}

func (h *CascadeEchoHandler) Statuses(c echo.Context) error {
	defer observe("statuses", time.Now())
	rows := h.statuses.Statuses()
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *CascadeEchoHandler) Gate(c echo.Context) error {
	defer observe("gate", time.Now())
	req := &models.SymbolQuery{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.APIErrors.WithLabelValues("gate", "bad_request").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, h.gate.Check(req.Symbol))
}

func (h *CascadeEchoHandler) GetAuto(c echo.Context) error {
	flags := h.control.Flags()
	return xhttp.SuccessResponse(c, models.AutoFlagsResponse{Default: flags.Default, PerSymbol: flags.PerSymbol})
}

func (h *CascadeEchoHandler) SetAuto(c echo.Context) error {
	defer observe("set_auto", time.Now())
	req := &models.SetAutoRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.APIErrors.WithLabelValues("set_auto", "bad_request").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}

	if err := h.control.Set(c.Request().Context(), req.Symbol, *req.Enabled); err != nil {
		if errors.Is(err, usecase.ErrSymbolNotWatched) {
			metrics.APIErrors.WithLabelValues("set_auto", "not_found").Inc()
			return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("symbol %s is not watched", usecase.NormalizeSymbol(req.Symbol)))
		}
		// the in-memory flag is already applied; only persistence failed
		h.logger.Error("set auto persist failed", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
	}
	return h.GetAuto(c)
}

func (h *CascadeEchoHandler) Watch(c echo.Context) error {
	defer observe("watch", time.Now())
	req := &models.WatchRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.APIErrors.WithLabelValues("watch", "bad_request").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}

	changed, err := h.control.Watch(c.Request().Context(), req.Symbol)
	if err != nil {
		h.logger.Error("watch persist failed", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
	}
	resp := models.WatchResponse{Symbol: usecase.NormalizeSymbol(req.Symbol), Changed: changed}
	if changed {
		return xhttp.CreatedResponse(c, resp)
	}
	return xhttp.SuccessResponse(c, resp)
}

func (h *CascadeEchoHandler) Unwatch(c echo.Context) error {
	defer observe("unwatch", time.Now())
	req := &models.WatchRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.APIErrors.WithLabelValues("unwatch", "bad_request").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}

	symbol := usecase.NormalizeSymbol(req.Symbol)
	changed, err := h.control.Unwatch(c.Request().Context(), symbol)
	if err != nil {
		h.logger.Error("unwatch persist failed", xlogger.String("symbol", symbol), xlogger.Error(err))
	}
	if !changed {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("symbol %s is not watched", symbol))
	}
	return xhttp.SuccessResponse(c, models.WatchResponse{Symbol: symbol, Changed: true})
}
