package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CORSConfig lists the origins the API answers cross-origin requests for.
// An empty AllowOrigins rejects every cross-origin caller until the
// deployment configures its frontends.
type CORSConfig struct {
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	ExposeHeaders    []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// DefaultCORSConfig returns the baseline config with no origins allowed.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins:     []string{},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "X-Request-ID", "Accept", "Origin"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}

// CORSWithConfig answers preflights and stamps CORS headers on responses to
// allowed origins. Requests from unlisted origins pass through without CORS
// headers; the browser enforces the rejection.
func CORSWithConfig(cfg CORSConfig) gin.HandlerFunc {
	wildcard := false
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			wildcard = true
			break
		}
	}

	resolve := func(origin string) string {
		if wildcard {
			return "*"
		}
		for _, o := range cfg.AllowOrigins {
			if o == origin {
				return origin
			}
		}
		return ""
	}

	grant := func(c *gin.Context, allowed string) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", allowed)
		// Allow-Credentials with "*" is rejected by browsers, never emit the pair
		if cfg.AllowCredentials && allowed != "*" {
			h.Set("Access-Control-Allow-Credentials", "true")
		}
		h.Set("Access-Control-Allow-Methods", strings.Join(cfg.AllowMethods, ", "))
		h.Set("Access-Control-Allow-Headers", strings.Join(cfg.AllowHeaders, ", "))
		if len(cfg.ExposeHeaders) > 0 {
			h.Set("Access-Control-Expose-Headers", strings.Join(cfg.ExposeHeaders, ", "))
		}
		if cfg.MaxAge > 0 {
			h.Set("Access-Control-Max-Age", strconv.Itoa(int(cfg.MaxAge.Seconds())))
		}
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if c.Request.Method == http.MethodOptions {
			// Preflights always get 204 so unknown origins see a clean
			// refusal instead of a routing 404
			if allowed := resolve(origin); allowed != "" {
				grant(c, allowed)
			}
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		if allowed := resolve(origin); allowed != "" && (origin != "" || wildcard) {
			grant(c, allowed)
		}
		c.Next()
	}
}

// RequestID tags every request with an id that follows it through the access
// log, the service spans and the gorm trace. Inbound X-Request-ID headers
// are honored so a gateway's id survives into our logs.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

// SecurityConfig controls the optional hardening headers. HSTS stays off
// until the deployment terminates TLS itself.
type SecurityConfig struct {
	HSTSEnabled           bool
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
	HSTSPreload           bool

	CSPEnabled   bool
	CSPDirective string

	PermissionsPolicyEnabled   bool
	PermissionsPolicyDirective string
}

// DefaultSecurityConfig returns restrictive defaults for a JSON API that
// serves no markup of its own.
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		HSTSEnabled:           false,
		HSTSMaxAge:            31536000,
		HSTSIncludeSubdomains: true,

		CSPEnabled:   true,
		CSPDirective: "default-src 'self'; frame-ancestors 'none'; base-uri 'self'; form-action 'self'",

		PermissionsPolicyEnabled:   true,
		PermissionsPolicyDirective: "accelerometer=(), camera=(), geolocation=(), microphone=(), payment=(), usb=()",
	}
}

// Secure applies the default security headers to every response.
func Secure() gin.HandlerFunc {
	return SecureWithConfig(DefaultSecurityConfig())
}

// SecureWithConfig stamps the security headers configured in cfg.
func SecureWithConfig(cfg SecurityConfig) gin.HandlerFunc {
	var hsts string
	if cfg.HSTSEnabled {
		hsts = fmt.Sprintf("max-age=%d", cfg.HSTSMaxAge)
		if cfg.HSTSIncludeSubdomains {
			hsts += "; includeSubDomains"
		}
		if cfg.HSTSPreload {
			hsts += "; preload"
		}
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		if cfg.CSPEnabled && cfg.CSPDirective != "" {
			h.Set("Content-Security-Policy", cfg.CSPDirective)
		}
		if hsts != "" {
			h.Set("Strict-Transport-Security", hsts)
		}
		if cfg.PermissionsPolicyEnabled && cfg.PermissionsPolicyDirective != "" {
			h.Set("Permissions-Policy", cfg.PermissionsPolicyDirective)
		}
		c.Next()
	}
}
