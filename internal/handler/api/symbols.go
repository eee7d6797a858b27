package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"SymDir/internal/domain/models"
	domrepo "SymDir/internal/domain/repository"
	"SymDir/internal/service/symbolcache"
	"SymDir/internal/usecase"
	xhttp "SymDir/pkg/http"
	xlogger "SymDir/pkg/logger"

	"github.com/labstack/echo/v4"
)

// SymbolsHandler exposes the symbol directory over HTTP.
type SymbolsHandler struct {
	logger *xlogger.Logger
	svc    *usecase.SymbolService
	inv    *usecase.InvalidationHandler
	store  domrepo.InstrumentStore

	searchMW []echo.MiddlewareFunc
}

func NewSymbolsHandler(logger *xlogger.Logger, svc *usecase.SymbolService, inv *usecase.InvalidationHandler, store domrepo.InstrumentStore) *SymbolsHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &SymbolsHandler{logger: logger.With("symbols_api"), svc: svc, inv: inv, store: store}
}

// UseSearchMiddleware wraps the search and underlying routes, e.g. with a
// rate limiter. Admin and health routes are not affected.
func (h *SymbolsHandler) UseSearchMiddleware(m ...echo.MiddlewareFunc) {
	h.searchMW = append(h.searchMW, m...)
}

func (h *SymbolsHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	e.GET("/readyz", h.Ready)

	g := e.Group("/api/v1")

	sym := g.Group("/symbols", h.searchMW...)
	sym.GET("/search", h.Search)
	sym.GET("/quick", h.Quick)
	sym.GET("/suggestions", h.Suggestions)
	sym.GET("/popular", h.Popular)
	sym.GET("/lookup", h.Lookup)

	und := g.Group("/underlyings/:underlying", h.searchMW...)
	und.GET("/instruments", h.ByUnderlying)
	und.GET("/options", h.OptionChain)
	und.GET("/futures", h.FuturesChain)

	g.GET("/cache/stats", h.CacheStats)
	g.GET("/cache/memory", h.CacheMemory)
	g.POST("/cache/warm", h.Warm)
	g.POST("/cache/invalidate", h.Invalidate)
}

func (h *SymbolsHandler) Search(c echo.Context) error {
	req := &models.SearchRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	q, err := req.ToQuery()
	if err != nil {
		return h.fail(c, err)
	}
	res := h.svc.SearchSymbols(c.Request().Context(), q)
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, res)
}

func (h *SymbolsHandler) Quick(c echo.Context) error {
	req := &models.QuickSearchRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	rows := h.svc.QuickSearch(c.Request().Context(), req.Query, req.Limit)
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *SymbolsHandler) Suggestions(c echo.Context) error {
	req := &models.SuggestionsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	rows := h.svc.GetSearchSuggestions(c.Request().Context(), req.Query, req.Limit)
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *SymbolsHandler) Popular(c echo.Context) error {
	req := &models.PopularRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	t, err := req.Type()
	if err != nil {
		return h.fail(c, err)
	}
	rows := h.svc.GetPopularSymbols(c.Request().Context(), t, req.Limit)
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *SymbolsHandler) Lookup(c echo.Context) error {
	req := &models.SymbolRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	key := req.Key()
	inst, err := h.svc.GetSymbol(c.Request().Context(), key)
	if err != nil {
		return h.fail(c, err)
	}
	if inst == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("symbol not found").WithParam("key", key))
	}
	return xhttp.SuccessResponse(c, inst)
}

func (h *SymbolsHandler) ByUnderlying(c echo.Context) error {
	req, expiry, err := h.underlyingRequest(c)
	if err != nil {
		return h.fail(c, err)
	}
	t, err := req.Type()
	if err != nil {
		return h.fail(c, err)
	}
	rows := h.svc.SearchByUnderlying(c.Request().Context(), req.Underlying, t, expiry)
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *SymbolsHandler) OptionChain(c echo.Context) error {
	req, expiry, err := h.underlyingRequest(c)
	if err != nil {
		return h.fail(c, err)
	}
	return xhttp.SuccessResponse(c, h.svc.GetOptionChain(c.Request().Context(), req.Underlying, expiry))
}

func (h *SymbolsHandler) FuturesChain(c echo.Context) error {
	req, _, err := h.underlyingRequest(c)
	if err != nil {
		return h.fail(c, err)
	}
	return xhttp.SuccessResponse(c, h.svc.GetFuturesChain(c.Request().Context(), req.Underlying))
}

func (h *SymbolsHandler) underlyingRequest(c echo.Context) (*models.UnderlyingRequest, time.Time, error) {
	req := &models.UnderlyingRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return nil, time.Time{}, validationError{verr}
	}
	expiry, ok := xhttp.ParseDate(req.Expiry)
	if !ok {
		return nil, time.Time{}, models.NewInvalidInput("expiry", "expected YYYY-MM-DD")
	}
	return req, expiry, nil
}

func (h *SymbolsHandler) CacheStats(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.svc.Stats())
}

func (h *SymbolsHandler) CacheMemory(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.svc.MemoryUsage())
}

func (h *SymbolsHandler) Warm(c echo.Context) error {
	report, err := h.svc.WarmCache(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return xhttp.SuccessResponse(c, report)
}

func (h *SymbolsHandler) Invalidate(c echo.Context) error {
	req := &models.InvalidateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ev := req.Event()
	if err := h.inv.Publish(c.Request().Context(), ev); err != nil {
		return h.fail(c, err)
	}
	return xhttp.DataResponse(c, http.StatusAccepted, ev)
}

func (h *SymbolsHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

// Ready reports whether the instrument store answers within two seconds.
func (h *SymbolsHandler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := h.store.Health(ctx); err != nil {
		h.logger.Warn("store not ready", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("instrument store unavailable").WithError(err))
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ready"})
}

// validationError carries binder/validator details through the error path.
type validationError struct{ details interface{} }

func (validationError) Error() string { return "validation failed" }

// fail maps domain errors to HTTP responses.
func (h *SymbolsHandler) fail(c echo.Context, err error) error {
	var verr validationError
	var inErr *models.InvalidInputError
	switch {
	case errors.As(err, &verr):
		return xhttp.BadRequestResponse(c, verr.details)
	case errors.As(err, &inErr):
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_INVALID_INPUT", inErr.Field, inErr.Reason, http.StatusBadRequest))
	case errors.Is(err, models.ErrInvalidInput):
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()))
	case errors.Is(err, symbolcache.ErrWarmInProgress):
		return xhttp.AppErrorResponse(c, xhttp.ConflictError(err.Error()))
	}
	h.logger.Error("symbols api error", xlogger.Error(err), xlogger.String("route", c.Path()))
	return xhttp.AppErrorResponse(c, xhttp.InternalError("Something went wrong").WithError(err))
}
