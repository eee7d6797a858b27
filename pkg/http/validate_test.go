package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listRequest struct {
	Query  string `query:"q"`
	Limit  int    `query:"limit" default:"10" validate:"gte=1,lte=100"`
	SortBy string `query:"sortBy" default:"relevance" validate:"oneof=relevance name"`
	From   string `query:"from" validate:"omitempty,datetime=2006-01-02"`
}

func newContext(target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestReadAndValidateRequestAppliesDefaults(t *testing.T) {
	c, _ := newContext("/?q=rel")
	req := &listRequest{}

	require.Nil(t, ReadAndValidateRequest(c, req))
	assert.Equal(t, "rel", req.Query)
	assert.Equal(t, 10, req.Limit)
	assert.Equal(t, "relevance", req.SortBy)
}

func TestReadAndValidateRequestReportsWireNames(t *testing.T) {
	c, _ := newContext("/?sortBy=popularity&limit=500&from=30-01-2025")

	out := ReadAndValidateRequest(c, &listRequest{})
	errs, ok := out.([]ValidationError)
	require.True(t, ok)

	byField := make(map[string]ValidationError, len(errs))
	for _, e := range errs {
		byField[e.Field] = e
	}
	require.Contains(t, byField, "sortBy")
	assert.Equal(t, "ERR_ONEOF", byField["sortBy"].Code)
	assert.Equal(t, []string{"relevance", "name"}, byField["sortBy"].Params["options"])
	assert.Equal(t, "popularity", byField["sortBy"].Params["value"])

	require.Contains(t, byField, "limit")
	assert.Equal(t, "ERR_LTE", byField["limit"].Code)

	require.Contains(t, byField, "from")
	assert.Equal(t, "from must be a date in YYYY-MM-DD form", byField["from"].Message)
}

func TestReadAndValidateRequestBindFailure(t *testing.T) {
	c, _ := newContext("/?limit=ten")

	errs, ok := ReadAndValidateRequest(c, &listRequest{}).([]ValidationError)
	require.True(t, ok)
	require.Len(t, errs, 1)
	assert.Equal(t, "ERR_BIND", errs[0].Code)
}

func TestAppErrorResponse(t *testing.T) {
	c, rec := newContext("/")
	require.NoError(t, AppErrorResponse(c, ConflictError("busy")))
	assert.Equal(t, http.StatusConflict, rec.Code)

	var body struct {
		Status int         `json:"status"`
		Data   []*AppError `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusConflict, body.Status)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "ERR_CONFLICT", body.Data[0].Code)

	c, rec = newContext("/")
	require.NoError(t, AppErrorResponse(c, errors.New("boom")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestServerRendersUnknownRoutesInEnvelope(t *testing.T) {
	srv := NewServer(nil, WithMetrics("", nil, nil))
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusNotFound, body.Status)
}
