// Package client contains client-side building blocks for the Strongholder
// key service.
//
// # Overview
//
// The package provides:
//  1. The Client interface: signup/signin, session info, archive listings,
//     logs, restore links, the repository key and SSH key exchange.
//  2. GRPCClient, a gRPC implementation that attaches the access token via an
//     interceptor, stores refreshed tokens the server hands back, drops the
//     token when the server says it expired, and maps server codes back to
//     the common sentinel errors.
//  3. InitDatabase and RunMigrations, which open the local SQLite session
//     database and apply its embedded goose migrations.
//
// # Error Handling
//
// Server failures come back as the sentinels in package common (for
// example common.ErrAuthFailure). Transport problems are ErrUnavailable or
// ErrUnauthorized. ErrNotLoggedIn means no session is stored locally.
//
// See Also
//
//   - Interface:  Client
//   - gRPC impl:  GRPCClient
//   - Tokens:     TokenStore
//   - DB helpers: InitDatabase, RunMigrations
package client
