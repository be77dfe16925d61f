package ports

import "time"

type AdminClaims struct {
	Subject   string    `json:"sub"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AdminTokenVerifier validates bearer tokens presented to the admin API.
type AdminTokenVerifier interface {
	Verify(token string) (AdminClaims, error)
}
