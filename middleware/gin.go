package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Gin adapts net/http middleware to gin. The request seen by later gin
// handlers is the one mw passed on. If mw answers without calling its next
// handler, the gin chain is aborted.
func Gin(mw func(http.Handler) http.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		called := false
		h := mw(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			called = true
			c.Request = r
			c.Next()
		}))

		h.ServeHTTP(c.Writer, c.Request)
		if !called {
			c.Abort()
		}
	}
}
