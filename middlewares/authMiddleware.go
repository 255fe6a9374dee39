package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/billing_backend/utils"
)

// AuthMiddleware validates the bearer token and seeds the request context
// with the caller's identity. Requests without a token pass through;
// handlers that need a business id reject them downstream.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.Request.Header.Get("Authorization")
		if auth == "" {
			c.Next()
			return
		}

		const bearer = "Bearer "
		if !strings.HasPrefix(auth, bearer) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		token := auth[len(bearer):]

		validate, err := utils.JwtValidate(token)
		if err != nil || !validate.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		claim, ok := validate.Claims.(*utils.JwtCustomClaim)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		ctx = utils.SetBusinessIdInContext(ctx, claim.BusinessId)
		ctx = utils.SetUserIdInContext(ctx, claim.ID)
		ctx = utils.SetUserNameInContext(ctx, claim.Name)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
