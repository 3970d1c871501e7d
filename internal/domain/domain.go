// Package domain defines the per-request view of the caller: who they
// are, what they may do, and which company they are operating in.
package domain

import (
	"encoding/json"
	"fmt"
	"strconv"

	"nexo-frontend/internal/permission"
)

// User is the authenticated account as reported by the backend.
type User struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Fullname      string    `json:"fullname"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"email_verified"`
	IsBlocked     bool      `json:"is_blocked"`
	Lang          string    `json:"lang"`
	UserCompanies []Company `json:"user_companies"`
}

// Company is the tenant context a request operates within. It is cached
// client-side in the company_id cookie once validated by the backend.
type Company struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Taxes bool   `json:"taxes"`
}

// Invitations is the sidebar summary of pending company invitations.
type Invitations struct {
	Exist    bool `json:"exist"`
	Quantity int  `json:"quantity"`
}

// AuthContext carries everything the auth middleware resolved for one
// request. It is constructed once per request and never mutated; route
// handlers read it through middleware.AuthFrom.
type AuthContext struct {
	User        User
	Permissions permission.Set
	Scopes      permission.Scopes
	Invitations Invitations
	Company     *Company
}

// UserFromData decodes the "user" object of an identity envelope.
// Returns nil when the backend reported no user.
func UserFromData(data map[string]any) (*User, error) {
	raw, ok := data["user"]
	if !ok || raw == nil {
		return nil, nil
	}

	var user User
	if err := decodeInto(raw, &user); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	return &user, nil
}

// CompanyFromData decodes the "company" object of a tenant validation
// envelope.
func CompanyFromData(data map[string]any) (*Company, error) {
	raw, ok := data["company"]
	if !ok || raw == nil {
		return nil, fmt.Errorf("missing company in response")
	}

	var company Company
	if err := decodeInto(raw, &company); err != nil {
		return nil, fmt.Errorf("failed to decode company: %w", err)
	}
	return &company, nil
}

// InvitationsFromData decodes the "invitations" summary of an identity
// envelope. An absent object yields the zero value.
func InvitationsFromData(data map[string]any) Invitations {
	var invitations Invitations
	if raw, ok := data["invitations"]; ok && raw != nil {
		_ = decodeInto(raw, &invitations)
	}
	return invitations
}

// PermissionsFromData decodes the flat permission-string list of an
// identity envelope.
func PermissionsFromData(data map[string]any) permission.Set {
	raw, ok := data["permissions"].([]any)
	if !ok {
		return nil
	}

	set := make(permission.Set, 0, len(raw))
	for _, entry := range raw {
		if s, ok := entry.(string); ok {
			set = append(set, s)
		}
	}
	return set
}

// decodeInto re-marshals a decoded JSON value into a typed struct.
// Numeric ids are normalized to strings first so the backend may send
// either representation.
func decodeInto(raw any, target any) error {
	if m, ok := raw.(map[string]any); ok {
		if id, ok := m["id"].(float64); ok {
			m["id"] = strconv.FormatFloat(id, 'f', -1, 64)
		}
	}

	encoded, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(encoded, target)
}
