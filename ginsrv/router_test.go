package ginsrv

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestSetupRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var calls []string
	mark := func(name string) gin.HandlerFunc {
		return func(c *gin.Context) {
			calls = append(calls, name)
			c.Next()
		}
	}

	routes := []Route{
		{
			Method: http.MethodGet,
			Path:   "/health",
			Handler: func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"health": "ok"})
			},
		},
	}

	r := SetupRouter(routes, mark("outer"), mark("inner"))

	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"health":"ok"}`, w.Body.String())
	assert.Equal(t, []string{"outer", "inner"}, calls)
}
