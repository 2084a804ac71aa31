// auth.go - Session authentication and the admin gate
// This file implements authentication and authorization for pages and the API
//
// Authentication Flow:
// 1. Extract the session token from the cookie or the Authorization header
// 2. Validate token signature and expiration
// 3. Store the claims in context for handlers
//
// Authorization Flow (Admin):
// 1. Run authentication first
// 2. No session: send pages to the login form, APIs get 401
// 3. Signed in without the ADMIN role: pages go to /forbidden, APIs get 403
// 4. Allow access otherwise

package middleware // Declares the package name

import ( // Import required packages
	"net/http" // HTTP status codes (401, 403, etc.)
	"net/url"  // Query encoding for redirects
	"strings"  // String operations (for header parsing)

	"github.com/gin-gonic/gin" // Gin web framework (for middleware)

	"kkmt-store/auth" // Token validation
)

// claimsKey is the gin context key holding *auth.Claims.
const claimsKey = "session"

// Authenticate returns a middleware that resolves the session, if any.
// It never aborts; gates decide what an anonymous request may do.
//
// How it works:
// 1. Checks the session cookie, then "Authorization: Bearer <token>"
// 2. Validates the JWT signature and expiration
// 3. Stores the claims in the Gin context for later use
func Authenticate(issuer *auth.Issuer, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// STEP 1: Extract the token
		tokenStr, _ := c.Cookie(cookieName)
		if tokenStr == "" {
			header := c.GetHeader("Authorization")
			if strings.HasPrefix(header, "Bearer ") {
				tokenStr = strings.TrimPrefix(header, "Bearer ")
			}
		}

		// STEP 2: Parse the token; bad or expired tokens count as anonymous
		if tokenStr != "" {
			if claims, err := issuer.Parse(tokenStr); err == nil {
				c.Set(claimsKey, claims) // STEP 3: Store claims in Gin context
			}
		}

		c.Next()
	}
}

// CurrentUser returns the claims stored by Authenticate.
func CurrentUser(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}

// RequireUser rejects anonymous API requests with 401.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// RequireAdmin returns a middleware for admin access control.
// Paths under /api/ get JSON errors; pages are redirected.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		isAPI := strings.HasPrefix(path, "/api/")

		// STEP 1: Require a session
		claims, ok := CurrentUser(c)
		if !ok {
			if isAPI {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
				return
			}
			c.Redirect(http.StatusFound, "/login?callbackUrl="+url.QueryEscape(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}

		// STEP 2: Check the role carried in the token
		if !claims.IsAdmin() {
			if isAPI {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
				return
			}
			c.Redirect(http.StatusFound, "/forbidden?from="+url.QueryEscape(path))
			c.Abort()
			return
		}

		c.Next() // Continue to next handler (admin access granted)
	}
}
