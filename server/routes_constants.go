package server

import "github.com/jrsteele09/go-profile-uploader/tenants"

// Route path constants
const (
	// Auth Routes
	RouteAuthLogin  = "/auth/login"
	RouteAuthLogout = "/auth/logout"

	// Uploaded pictures
	RouteUploadsPrefix = "/uploads/"
	RouteUploads       = RouteUploadsPrefix + "{file}"

	RouteHealthcheck = "/healthcheck"
)

// profilePicRoute is the picture endpoint owned by t
func profilePicRoute(t tenants.Type) string {
	route, err := tenants.Lookup(t)
	if err != nil {
		panic(err)
	}
	return route.Path
}
