package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/ticket-booking/internal/repository"
)

func newContext(t *testing.T) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestEngineErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{repository.ErrEventNotFound, http.StatusNotFound},
		{repository.ErrSeatNotFound, http.StatusNotFound},
		{repository.ErrTicketNotFound, http.StatusNotFound},
		{repository.ErrGuestNotFound, http.StatusNotFound},
		{repository.ErrRefundNotFound, http.StatusNotFound},
		{repository.ErrSeatTaken, http.StatusConflict},
		{repository.ErrRefundExists, http.StatusConflict},
		{repository.ErrEventStarted, http.StatusBadRequest},
		{repository.ErrTicketNotReserved, http.StatusBadRequest},
		{repository.ErrTicketNotCancelled, http.StatusBadRequest},
		{repository.ErrRefundApproved, http.StatusBadRequest},
		{repository.ErrForbidden, http.StatusForbidden},
		{errors.New("driver: bad connection"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		c, rec := newContext(t)
		require.NoError(t, engineError(c, tc.err))
		assert.Equal(t, tc.code, rec.Code, "error %v", tc.err)
	}
}

func TestGetUserID(t *testing.T) {
	c, _ := newContext(t)

	// JWT numeric claims arrive as float64.
	c.Set("user_id", float64(42))
	id, err := getUserID(c)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)

	c.Set("user_id", "17")
	id, err = getUserID(c)
	require.NoError(t, err)
	assert.Equal(t, uint64(17), id)

	c.Set("user_id", nil)
	_, err = getUserID(c)
	assert.Error(t, err)

	c.Set("user_id", "not-a-number")
	_, err = getUserID(c)
	assert.Error(t, err)
}

func TestPathID(t *testing.T) {
	c, _ := newContext(t)
	c.SetParamNames("id")
	c.SetParamValues("15")
	id, ok := pathID(c, "id")
	assert.True(t, ok)
	assert.Equal(t, uint64(15), id)

	c.SetParamValues("0")
	_, ok = pathID(c, "id")
	assert.False(t, ok)

	c.SetParamValues("abc")
	_, ok = pathID(c, "id")
	assert.False(t, ok)
}
