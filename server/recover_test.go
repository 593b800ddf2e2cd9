package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/netterhq/netter/logger"
)

func TestRecoverMiddlewareConvertsPanicTo500(t *testing.T) {
	log := logger.New("test")
	log.Output = discardWriter{}

	h := recoverMiddleware(log, func(rw http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	req := httptest.NewRequest("GET", "/", nil)
	rw := httptest.NewRecorder()
	h(rw, req)

	assert.Equal(t, http.StatusInternalServerError, rw.Code)
}

func TestRecoverMiddlewarePassesThroughOnSuccess(t *testing.T) {
	log := logger.New("test")
	log.Output = discardWriter{}

	h := recoverMiddleware(log, func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/", nil)
	rw := httptest.NewRecorder()
	h(rw, req)

	assert.Equal(t, http.StatusOK, rw.Code)
}
