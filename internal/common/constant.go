// Package common contains shared constants and sentinel errors used across
// Strongholder components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on requests and to return a refreshed token on responses.
const AccessTokenHeaderName = "access_token"

// ClearTokenHeaderName is set on a response when the client must drop
// its stored token (the session has expired).
const ClearTokenHeaderName = "clear_token"
