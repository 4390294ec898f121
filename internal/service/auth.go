package service

import (
	"github.com/clerk/clerk-sdk-go/v2"

	"github.com/deppfellow/patient-api/internal/server"
)

// AuthService configures the Clerk SDK. Enabled is false when no secret
// key is configured, in which case every route stays public.
type AuthService struct {
	server  *server.Server
	Enabled bool
}

func NewAuthService(s *server.Server) *AuthService {
	enabled := s.Config.AuthEnabled()
	if enabled {
		clerk.SetKey(s.Config.Auth.SecretKey)
	}

	return &AuthService{
		server:  s,
		Enabled: enabled,
	}
}
