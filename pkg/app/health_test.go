package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"tablebook/pkg/logger"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type fakePinger struct {
	err error
}

func (p fakePinger) Ping(context.Context, *readpref.ReadPref) error {
	return p.err
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		pingErr  error
		wantCode int
	}{
		{name: "liveness ignores database", path: "/health", pingErr: errors.New("down"), wantCode: http.StatusOK},
		{name: "ready with database", path: "/ready", wantCode: http.StatusOK},
		{name: "not ready without database", path: "/ready", pingErr: errors.New("down"), wantCode: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := httprouter.New()
			NewHealthHandler(fakePinger{err: tt.pingErr}, logger.Nop()).RegisterRoutes(router)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.wantCode {
				t.Errorf("GET %s: expected %d, got %d", tt.path, tt.wantCode, rec.Code)
			}
		})
	}
}
