package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SubjectHeader is where the identity proxy places the verified subject
// identifier after validating the caller's credentials. The core trusts
// this value completely and never sees a raw token.
const SubjectHeader = "sub"

// SubjectKey is the gin context key the subject is stored under for
// handlers.
const SubjectKey = "subject"

// Auth requires the verified subject header on the request and exposes it
// to handlers. Requests without it never reach the core.
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		subject := c.Request.Header.Get(SubjectHeader)
		if subject == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "missing authenticated subject",
			})
			c.Abort()
			return
		}

		c.Set(SubjectKey, subject)
		c.Next()
	}
}

// Subject returns the verified subject of the current request. Only valid
// on routes behind Auth.
func Subject(c *gin.Context) string {
	return c.GetString(SubjectKey)
}
