package middleware

import (
	"net"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/salesdesk/backend/internal/interfaces/http/dto"
)

// SwaggerAccessConfig controls access to the generated API documentation.
type SwaggerAccessConfig struct {
	// Enabled serves the documentation at all. When false the routes
	// answer 404 so the endpoint is indistinguishable from absent.
	Enabled bool

	// RequireAuth additionally runs the JWT middleware.
	RequireAuth bool

	// AllowedIPs restricts access to the listed IPs or CIDR ranges.
	// Empty means no IP restriction.
	AllowedIPs []string
}

// SwaggerProtection gates the swagger routes according to config.
// jwtAuth is the authentication middleware to delegate to when
// RequireAuth is set; it may be nil when RequireAuth is false.
func SwaggerProtection(config SwaggerAccessConfig, jwtAuth gin.HandlerFunc) gin.HandlerFunc {
	allowedNets, allowedIPs := parseAllowedIPs(config.AllowedIPs)

	return func(c *gin.Context) {
		if !config.Enabled {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}

		if len(allowedNets) > 0 || len(allowedIPs) > 0 {
			client := net.ParseIP(c.ClientIP())
			if client == nil || !ipAllowed(client, allowedNets, allowedIPs) {
				envelope := dto.NewErrorResponse(http.StatusForbidden,
					"Access to API documentation is restricted")
				c.AbortWithStatusJSON(envelope.StatusCode, envelope)
				return
			}
		}

		if config.RequireAuth && jwtAuth != nil {
			jwtAuth(c)
			if c.IsAborted() {
				return
			}
		}

		c.Next()
	}
}

func parseAllowedIPs(entries []string) ([]*net.IPNet, []net.IP) {
	var nets []*net.IPNet
	var ips []net.IP
	for _, entry := range entries {
		if _, network, err := net.ParseCIDR(entry); err == nil {
			nets = append(nets, network)
			continue
		}
		if ip := net.ParseIP(entry); ip != nil {
			ips = append(ips, ip)
		}
	}
	return nets, ips
}

func ipAllowed(client net.IP, nets []*net.IPNet, ips []net.IP) bool {
	for _, network := range nets {
		if network.Contains(client) {
			return true
		}
	}
	for _, ip := range ips {
		if ip.Equal(client) {
			return true
		}
	}
	return false
}
