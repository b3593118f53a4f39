// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

// # Authentication Constraints

const (
	// MinPasswordLength is the shortest password accepted at registration
	// and on password change.
	MinPasswordLength = 8

	// MaxNameLength bounds the display name column.
	MaxNameLength = 255

	// confirmEmailPathFormat is the public path the confirmation link points
	// at; the register token rides in the path segment.
	confirmEmailPathFormat = "/api/v1/auth/confirm-email/%s"

	// confirmEmailTextFormat is the body of the confirmation email: the
	// recipient greeting first, the confirmation link second.
	confirmEmailTextFormat = "Hello, %s! Welcome and thank you for registering at Yomira. " +
		"Here is your link to confirm your email: %s"

	// formFieldUsername is the OAuth2 password-grant form field. Per that
	// convention it carries the user's email.
	formFieldUsername = "username"
)
