package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type historyRequest struct {
	Timeframe int    `json:"timeframe" validate:"required,oneof=1 5 10 15 30 60"`
	Symbol    string `json:"symbol,omitempty"`
	DaysBack  int    `json:"days_back" default:"5" validate:"gte=1,lte=365"`
}

func bindBody(t *testing.T, body string, req interface{}) []ValidationError {
	t.Helper()
	e := echo.New()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return BindAndValidate(e.NewContext(r, httptest.NewRecorder()), req)
}

func TestBindAndValidate_AppliesDefaults(t *testing.T) {
	req := &historyRequest{}
	require.Nil(t, bindBody(t, `{"timeframe":15,"symbol":"ESZ5"}`, req))
	assert.Equal(t, 15, req.Timeframe)
	assert.Equal(t, 5, req.DaysBack)
}

func TestBindAndValidate_ReportsJSONFieldNames(t *testing.T) {
	errs := bindBody(t, `{"timeframe":7,"days_back":400}`, &historyRequest{})
	require.Len(t, errs, 2)

	assert.Equal(t, "timeframe", errs[0].Field)
	assert.Equal(t, "ERR_ONEOF", errs[0].Code)
	assert.Equal(t, "timeframe must be one of 1, 5, 10, 15, 30, 60", errs[0].Message)
	assert.Equal(t, []string{"1", "5", "10", "15", "30", "60"}, errs[0].Params["options"])

	assert.Equal(t, "days_back", errs[1].Field)
	assert.Equal(t, "days_back must be at most 365", errs[1].Message)
	assert.Equal(t, "365", errs[1].Params["max"])
}

func TestBindAndValidate_MissingTimeframe(t *testing.T) {
	errs := bindBody(t, `{}`, &historyRequest{})
	require.Len(t, errs, 1)
	assert.Equal(t, "timeframe", errs[0].Field)
	assert.Equal(t, "timeframe is required", errs[0].Message)
}

func TestBindAndValidate_MalformedBody(t *testing.T) {
	errs := bindBody(t, `{"timeframe":`, &historyRequest{})
	require.Len(t, errs, 1)
	assert.Equal(t, "ERR_BODY", errs[0].Code)
	assert.Empty(t, errs[0].Field)
}

func TestAppError_DetailsAndCause(t *testing.T) {
	cause := errors.New("scheduler already running")
	err := BadRequestError("Invalid request body").WithDetails([]ValidationError{{Field: "days_back"}}).WithError(cause)

	assert.Equal(t, http.StatusBadRequest, err.Status)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Invalid request body: scheduler already running", err.Error())
	assert.Len(t, err.Details, 1)
}
