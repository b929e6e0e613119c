// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package services

// InvalidRequestError is returned when a request fails validation.
// Handlers map this to HTTP 400.
type InvalidRequestError struct {
	Message string
}

func (e *InvalidRequestError) Error() string {
	return "invalid request: " + e.Message
}

// IsInvalidRequest checks if an error is an InvalidRequestError.
func IsInvalidRequest(err error) bool {
	_, ok := err.(*InvalidRequestError)
	return ok
}

// NotFoundError is returned when a referenced resource does not exist or
// is not visible to the caller. Handlers map this to HTTP 404.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found: " + e.ID
}

// IsNotFound checks if an error is a NotFoundError.
func IsNotFound(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}

// GatewayTimeoutError is returned when an upstream dependency (LLM backend
// or pattern index) did not answer within its deadline. Handlers map this
// to HTTP 504.
type GatewayTimeoutError struct {
	Upstream string
}

func (e *GatewayTimeoutError) Error() string {
	return "upstream timeout: " + e.Upstream
}

// IsGatewayTimeout checks if an error is a GatewayTimeoutError.
func IsGatewayTimeout(err error) bool {
	_, ok := err.(*GatewayTimeoutError)
	return ok
}

// MalformedUpstreamError is returned when an upstream dependency answered
// with an unusable payload. Handlers map this to HTTP 502.
type MalformedUpstreamError struct {
	Upstream string
	Message  string
}

func (e *MalformedUpstreamError) Error() string {
	return "malformed upstream response (" + e.Upstream + "): " + e.Message
}

// IsMalformedUpstream checks if an error is a MalformedUpstreamError.
func IsMalformedUpstream(err error) bool {
	_, ok := err.(*MalformedUpstreamError)
	return ok
}

// GatewayError is returned for other upstream failures (connection refused,
// non-2xx status). Handlers map this to HTTP 502.
type GatewayError struct {
	Upstream string
	Message  string
}

func (e *GatewayError) Error() string {
	return "upstream error (" + e.Upstream + "): " + e.Message
}

// IsGatewayError checks if an error is a GatewayError.
func IsGatewayError(err error) bool {
	_, ok := err.(*GatewayError)
	return ok
}
