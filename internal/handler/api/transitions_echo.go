package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"CascadeWatch/internal/domain/models"
	svccache "CascadeWatch/internal/service/cache"
	"CascadeWatch/internal/service/metrics"
	"CascadeWatch/internal/service/ratelimit"
	"CascadeWatch/internal/usecase"
	xhttp "CascadeWatch/pkg/http"
	xlogger "CascadeWatch/pkg/logger"
)

const defaultHistoryWindow = 24 * time.Hour

// TransitionsEchoHandler serves light transition history. Rendered responses
// are cached per query string for ttl.
type TransitionsEchoHandler struct {
	logger  *xlogger.Logger
	uc      *usecase.TransitionsUseCase
	cache   svccache.BytesCache
	ttl     time.Duration
	limiter *ratelimit.Limiter
	now     func() time.Time
}

func NewTransitionsEchoHandler(logger *xlogger.Logger, uc *usecase.TransitionsUseCase, cache svccache.BytesCache, ttl time.Duration, limiter *ratelimit.Limiter) *TransitionsEchoHandler {
	return &TransitionsEchoHandler{logger: logger, uc: uc, cache: cache, ttl: ttl, limiter: limiter, now: time.Now}
}

func (h *TransitionsEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/cascade/transitions", h.Transitions, limitByIP(h.limiter, "transitions"))
}

func (h *TransitionsEchoHandler) Transitions(c echo.Context) error {
	defer observe("transitions", time.Now())
	ctx := c.Request().Context()

	req := &models.TransitionsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.APIErrors.WithLabelValues("transitions", "bad_request").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}

	key := fmt.Sprintf("transitions:%s:%s:%s:%d", usecase.NormalizeSymbol(req.Symbol), req.From, req.To, req.Limit)
	if h.cache != nil {
		if b, ok, err := h.cache.GetBytes(ctx, key); err == nil && ok {
			metrics.HistoryCacheHits.WithLabelValues("hit").Inc()
			return xhttp.Blob(c, b)
		} else if err != nil {
			h.logger.Warn("history cache read failed", xlogger.Error(err))
		}
		metrics.HistoryCacheHits.WithLabelValues("miss").Inc()
	}

	to, err := xhttp.QueryTime(c, "to")
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	if to.IsZero() {
		to = h.now().UTC()
	}
	from, err := xhttp.QueryTime(c, "from")
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	if from.IsZero() {
		from = to.Add(-defaultHistoryWindow)
	}

	res, err := h.uc.GetTransitions(ctx, usecase.GetTransitionsParams{
		Symbol: req.Symbol,
		From:   from,
		To:     to,
		Limit:  req.Limit,
	})
	switch {
	case errors.Is(err, usecase.ErrInvalidQuery):
		metrics.APIErrors.WithLabelValues("transitions", "bad_request").Inc()
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("%v", err))
	case errors.Is(err, usecase.ErrHistoryUnavailable):
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError(err.Error()))
	case err != nil:
		metrics.APIErrors.WithLabelValues("transitions", "store").Inc()
		h.logger.Error("transitions usecase error", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError("transition history unavailable").WithError(err))
	}

	body, err := json.Marshal(xhttp.APIResponse{Status: http.StatusOK, Message: http.StatusText(http.StatusOK), Data: res})
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.InternalError("encode response").WithError(err))
	}
	if h.cache != nil {
		if err := h.cache.SetBytes(ctx, key, body, h.ttl); err != nil {
			h.logger.Warn("history cache write failed", xlogger.Error(err))
		}
	}
	return xhttp.Blob(c, body)
}
