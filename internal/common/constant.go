// Package common contains shared constants, sentinel errors and typed
// request errors used across soundhub components.
package common

// AuthorizationHeaderName is the HTTP header carrying the access token.
const AuthorizationHeaderName = "Authorization"

// AuthorizationKeyword is the scheme word preceding the access token,
// e.g. "Authorization: Token <jwt>". Matching is case-insensitive.
const AuthorizationKeyword = "Token"

// UnusablePasswordPrefix marks a stored password hash that can never be
// verified (federated accounts without a local password).
const UnusablePasswordPrefix = "!"
