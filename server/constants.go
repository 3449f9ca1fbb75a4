package server

import "github.com/dotside-studios/davi-tap-lab/buildinfo"

// mDNS service discovery constants
var (
	MDNSServiceType = "_tap-lab._tcp"
	MDNSServiceName = buildinfo.DisplayName
	MDNSDomain      = "local."
)

// API routes
const (
	RouteHealth  = "/api/v1/health"
	RouteScreens = "/api/v1/screens"
	RouteWS      = "/ws"
)

// CORS configuration
const (
	CORSAllowOrigin  = "*"
	CORSAllowMethods = "GET, OPTIONS"
	CORSAllowHeaders = "Content-Type, Authorization"
)
