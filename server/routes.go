package server

import (
	"net/http"

	"github.com/jrsteele09/go-profile-uploader/tenants"
)

func (s *Server) initRoutes() {
	s.router.Use(s.RecoverMiddleware, s.RequestIDMiddleware, s.LoggingMiddleware, s.RateLimitMiddleware)

	s.RegisterRoute("GET "+RouteHealthcheck, s.HealthcheckHandler())

	// LOGIN
	s.RegisterRoute("POST "+RouteAuthLogin, s.LoginHandler())
	s.RegisterRoute("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.RequireAuth()))

	// Profile pictures, one endpoint per tenant, only usable by that tenant's users
	for _, t := range tenants.All() {
		path := profilePicRoute(t)
		s.RegisterRoute(http.MethodPut+" "+path, ChainMiddleware(s.UploadProfilePicHandler(), s.RequireAuth(), s.RequireRole(t)))
		s.RegisterRoute(http.MethodDelete+" "+path, ChainMiddleware(s.RemoveProfilePicHandler(), s.RequireAuth(), s.RequireRole(t)))
	}

	s.RegisterRoute("GET "+RouteUploads, s.ServeUploadHandler())
}
