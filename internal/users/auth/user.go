// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the user identity and session management layer.

It defines the core domain entities (User, Session, SocialAccount, Role,
Permission) and the logic for local and OAuth authentication, token issuance,
and the registration email-confirmation handshake.

# Architecture

This layer is the "Truth" of the system. Entities defined here have no external
dependencies and encapsulate all business rules related to user identity.
A user's effective permissions are always derived user -> roles -> permissions;
nothing is granted directly to a user.
*/
package auth

import (
	"time"
)

// # Domain Entities

// User represents an account row plus its derived projections. The password
// hash never leaves the service boundary.
type User struct {
	UUID         string    `json:"uuid"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Derived projections, hydrated on demand.
	RolesUUIDs          []string `json:"roles_uuids,omitempty"`
	RolesNames          []string `json:"roles_names,omitempty"`
	PermissionsUUIDs    []string `json:"permissions_uuids,omitempty"`
	PermissionsNames    []string `json:"permissions_names,omitempty"`
	ActiveSessionsUUIDs []string `json:"active_sessions_uuids,omitempty"`
}

// Session is one device/address login. At most one session per
// (user, ip, useragent) triple is active; the service displaces the older
// one on a repeat login from the same context.
type Session struct {
	UUID      string    `json:"uuid"`
	UserUUID  string    `json:"user_uuid"`
	UserAgent string    `json:"useragent"`
	IP        string    `json:"ip"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SocialAccount links a local user to one external OAuth identity.
type SocialAccount struct {
	UUID       string    `json:"uuid"`
	UserUUID   string    `json:"user_uuid"`
	SocialName string    `json:"social_name"`
	SocialUUID string    `json:"social_uuid"`
	CreatedAt  time.Time `json:"created_at"`
}

// Role is a named bundle of permissions.
type Role struct {
	UUID      string    `json:"uuid"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PermissionsUUIDs []string `json:"permissions_uuids,omitempty"`
	PermissionsNames []string `json:"permissions_names,omitempty"`
}

// Permission is a single named capability checked by route guards.
type Permission struct {
	UUID      string    `json:"uuid"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// # Inputs

// RegisterInput carries the local sign-up form.
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// LoginInput carries the local credential pair.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// # Field Identifiers

// Global field names for validation and response mapping in the auth domain.
const (
	FieldEmail        = "email"
	FieldPassword     = "password"
	FieldName         = "name"
	FieldProvider     = "provider"
	FieldCode         = "code"
	FieldState        = "state"
	FieldRefreshToken = "refresh_token"
	FieldAccessToken  = "access_token"
	FieldTokenType    = "token_type"
	FieldIP           = "ip"
	FieldUserAgent    = "useragent"
)
