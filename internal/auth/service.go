package auth

// Principal is an authenticated caller.
type Principal struct {
	UserID string
	Role   string
}

// IsAdmin reports whether the principal may call admin endpoints.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// Service provides authentication operations.
type Service struct {
	jwtService *JWTService
}

// ServiceConfig holds configuration for the auth service.
type ServiceConfig struct {
	JWTService *JWTService
}

// NewService creates a new auth service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{jwtService: cfg.JWTService}
}

// ValidateAccessToken validates a bearer token and returns the principal it
// identifies.
func (s *Service) ValidateAccessToken(tokenString string) (Principal, error) {
	claims, err := s.jwtService.ValidateAccessToken(tokenString)
	if err != nil {
		return Principal{}, err
	}

	role := claims.Role
	if role == "" {
		role = RoleUser
	}
	return Principal{UserID: claims.UserID, Role: role}, nil
}
