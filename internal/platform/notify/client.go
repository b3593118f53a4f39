// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package notify is the HTTP client for the notifications service.
//
// Registration handshakes are delegated to it: confirmation emails for new
// accounts and duplicate-user notices when a registration hits an email that
// is already taken. Calls are authenticated service-to-service with a shared
// secret plus the caller's service name.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/taibuivan/yomira-auth/internal/platform/constants"
)

// Client talks to the notifications service over HTTP.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	serviceSecret string
	serviceName   string
}

/*
NewClient builds a notifications client.

Parameters:
  - baseURL: scheme://host:port of the notifications service, no trailing slash.
  - serviceSecret: shared secret sent in the Authorization header.
  - serviceName: this service's name, sent in the Service-Name header.

Returns:
  - *Client: ready-to-use client with a bounded request timeout.
*/
func NewClient(baseURL, serviceSecret, serviceName string) *Client {
	return &Client{
		httpClient:    &http.Client{Timeout: constants.OutboundRequestTimeout},
		baseURL:       baseURL,
		serviceSecret: serviceSecret,
		serviceName:   serviceName,
	}
}

/*
SendEmail asks the notifications service to deliver a plain-text email.

Parameters:
  - ctx: request-scoped context.
  - emailTo: recipient address.
  - msgText: message body, link included.

Returns:
  - error: non-nil when the service is unreachable or responds non-200.
*/
func (client *Client) SendEmail(ctx context.Context, emailTo, msgText string) error {
	payload := map[string]string{
		"email_to": emailTo,
		"msg_text": msgText,
	}
	return client.post(ctx, "/api/v1/services-notifications/send-email", payload)
}

/*
NotifyDuplicateUser reports a registration attempt against an existing email,
so the notifications service can warn the account owner.

Parameters:
  - ctx: request-scoped context.
  - userUUID: uuid of the already-registered user.
  - userEmail: the contested email address.

Returns:
  - error: non-nil when the service is unreachable or responds non-200.
*/
func (client *Client) NotifyDuplicateUser(ctx context.Context, userUUID, userEmail string) error {
	payload := map[string]string{
		"user_uuid":  userUUID,
		"user_email": userEmail,
	}
	return client.post(ctx, "/api/v1/services-users/duplicate-user", payload)
}

// post sends an authenticated JSON POST and expects a 200 back.
func (client *Client) post(ctx context.Context, path string, payload map[string]string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notify: encode payload: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, client.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: build request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set(constants.HeaderAuthorization, client.serviceSecret)
	request.Header.Set(constants.HeaderServiceName, client.serviceName)

	response, err := client.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("notify: call %s: %w", path, err)
	}
	defer func() { _ = response.Body.Close() }()

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("notify: %s responded %d", path, response.StatusCode)
	}
	return nil
}
