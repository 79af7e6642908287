package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/yoockh/mockmate/internal/utils"
)

type apiError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

type supabaseClaims struct {
	jwt.RegisteredClaims
	Role         string         `json:"role"`         // usually "authenticated" / "anon"
	AppMetadata  map[string]any `json:"app_metadata"` // put {"role":"admin"} here
	UserMetadata map[string]any `json:"user_metadata"`
}

type JWTConfig struct {
	Secret   string
	Issuer   string // optional
	Audience string // optional
}

func JWTAuth(cfg JWTConfig) gin.HandlerFunc {
	secret, issuer, audience := cfg.Secret, cfg.Issuer, cfg.Audience

	return func(c *gin.Context) {
		if secret == "" {
			c.AbortWithStatusJSON(http.StatusInternalServerError, apiError{
				Code:    utils.CodeInternal,
				Message: "SUPABASE_JWT_SECRET is not set",
			})
			return
		}

		raw := bearerToken(c)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{
				Code:    utils.CodeUnauthorized,
				Message: "missing bearer token",
			})
			return
		}

		claims := &supabaseClaims{}
		tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

		if err != nil || tok == nil || !tok.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{
				Code:    utils.CodeUnauthorized,
				Message: "invalid token",
			})
			return
		}

		if issuer != "" && claims.Issuer != issuer {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{
				Code:    utils.CodeUnauthorized,
				Message: "invalid token issuer",
			})
			return
		}

		if audience != "" {
			valid := false
			for _, aud := range claims.Audience {
				if aud == audience {
					valid = true
					break
				}
			}
			if !valid {
				c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{
					Code:    utils.CodeUnauthorized,
					Message: "invalid token audience",
				})
				return
			}
		}

		userID := claims.Subject
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{
				Code:    utils.CodeUnauthorized,
				Message: "missing subject",
			})
			return
		}

		// Default role: "user" (app-level role)
		appRole := "user"
		if claims.AppMetadata != nil {
			if v, ok := claims.AppMetadata["role"]; ok {
				if s, ok := v.(string); ok && s != "" {
					appRole = s
				}
			}
		}

		c.Set("user_id", userID)
		c.Set("role", appRole)
		c.Next()
	}
}

// bearerToken reads the Authorization header, or the token query parameter
// on websocket upgrades where browsers cannot set headers.
func bearerToken(c *gin.Context) string {
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	if websocketUpgrade(c) {
		return strings.TrimSpace(c.Query("token"))
	}
	return ""
}

func websocketUpgrade(c *gin.Context) bool {
	return strings.EqualFold(c.GetHeader("Upgrade"), "websocket")
}
