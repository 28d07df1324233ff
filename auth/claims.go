// Package auth issues and verifies the short-lived signed tokens that guard
// directory write operations, and owns password hashing for credential
// records.
package auth

import (
	gojwt "github.com/golang-jwt/jwt/v5"
)

// AccessLevel controls what directory mutations an identity may perform.
type AccessLevel string

const (
	// AccessAdmin may register and deregister any service.
	AccessAdmin AccessLevel = "ADMIN"
	// AccessSelf may deregister only the service whose id equals its username.
	AccessSelf AccessLevel = "SELF"
	// AccessNone may not mutate the directory.
	AccessNone AccessLevel = "NONE"
)

// Valid reports whether the level is one of the known access levels.
func (a AccessLevel) Valid() bool {
	switch a {
	case AccessAdmin, AccessSelf, AccessNone:
		return true
	}
	return false
}

// Claims is the token payload: the authenticated username and its access
// level, plus the registered time claims.
type Claims struct {
	gojwt.RegisteredClaims
	Username string      `json:"username"`
	Access   AccessLevel `json:"access"`
}

// Identity is the resolved caller identity attached to authenticated requests.
type Identity struct {
	Username string
	Access   AccessLevel
}

// CanRegister reports whether the identity may create service records.
func (id Identity) CanRegister() bool {
	return id.Access == AccessAdmin
}

// CanDeregister reports whether the identity may delete the record with the
// given id. ADMIN may delete anything; SELF only its own record.
func (id Identity) CanDeregister(targetID string) bool {
	switch id.Access {
	case AccessAdmin:
		return true
	case AccessSelf:
		return id.Username == targetID
	}
	return false
}
