package tenantgate

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// TenantClaims is the JWT claims shape carrying the authorized app_id.
type TenantClaims struct {
	AppID string `json:"app_id"`
	jwt.RegisteredClaims
}

// ParseBearer validates a bearer JWT against secret and extracts its
// AuthContext. A missing or invalid token yields HasAuth=false rather than
// an error here; Resolve is the single place that turns that into
// Unauthorized, keeping the classification centralized.
func ParseBearer(authorizationHeader string, secret []byte) AuthContext {
	if authorizationHeader == "" {
		return AuthContext{}
	}
	tokenString := authorizationHeader
	const prefix = "Bearer "
	if len(tokenString) > len(prefix) && tokenString[:len(prefix)] == prefix {
		tokenString = tokenString[len(prefix):]
	}

	claims := &TenantClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return secret, nil
	})
	if err != nil || !token.Valid || claims.AppID == "" {
		return AuthContext{}
	}
	return AuthContext{AuthorizedAppID: claims.AppID, HasAuth: true}
}

// Middleware resolves the tenant app_id for every request using the first
// of path/body/query app_id and the bearer auth context, storing
// the verified app_id on the gin context under "app_id". It also captures
// the raw body for the PCI scan before any JSON binder consumes it.
func Middleware(jwtSecret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, _ := io.ReadAll(c.Request.Body)
		c.Request.Body = io.NopCloser(bytes.NewReader(raw))

		if err := ScanForPCIFields(raw); err != nil {
			c.Error(err)
			c.Abort()
			return
		}

		requested := firstNonEmpty(
			c.Param("app_id"),
			bodyAppID(raw),
			c.Query("app_id"),
		)

		auth := ParseBearer(c.GetHeader("Authorization"), jwtSecret)

		appID, err := Resolve(requested, auth)
		if err != nil {
			c.Error(err)
			c.Abort()
			return
		}

		c.Set("app_id", appID)
		c.Next()
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// bodyAppID does a best-effort, allocation-light scrape of a top-level
// "app_id" field without fully decoding the body (the real decode happens
// in the handler once the app_id has already been verified).
func bodyAppID(raw []byte) string {
	type probe struct {
		AppID string `json:"app_id"`
	}
	var p probe
	if err := json.Unmarshal(raw, &p); err != nil {
		return ""
	}
	return p.AppID
}
