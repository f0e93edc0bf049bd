// Package auth implements authentication and authorization for the Tuner
// Control Container.
//
// Bearer tokens are JWTs verified with either a shared HS256 secret or an
// RS256 public key (PEM). Scopes gate the API surface: read for state and
// listings, control for mutating commands, telemetry for the event
// stream.
package auth
