package models

import "github.com/golang-jwt/jwt/v5"

// Identity is the authenticated caller, resolved by the auth layer before any
// operation logic runs. It is passed explicitly through every service call;
// nothing in the registry reads caller state from process-wide globals.
type Identity struct {
	Username string
	Admin    bool
}

// RegistryClaims is the JWT claims structure accepted by the registry. The
// subject carries the username; admin status comes from either the role claim
// or an explicit app_metadata flag, whichever the issuing deployment uses.
type RegistryClaims struct {
	jwt.RegisteredClaims
	Email       string                 `json:"email"`
	Role        string                 `json:"role"`
	AppMetadata map[string]interface{} `json:"app_metadata"`
}

// Identity converts verified claims into the caller identity used by the
// service layer.
func (c *RegistryClaims) Identity() Identity {
	return Identity{
		Username: c.Subject,
		Admin:    c.IsAdmin(),
	}
}

// IsAdmin reports whether the claims mark the caller as a system admin.
func (c *RegistryClaims) IsAdmin() bool {
	if c.Role == "admin" {
		return true
	}
	if v, ok := c.AppMetadata["admin"].(bool); ok {
		return v
	}
	return false
}
