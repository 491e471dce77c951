// Package middleware exposes HTTP adapters over authcore.Engine validation.
//
//   - [Guard]: Bearer-token access enforcement for any route.
//   - [RequireRole]: Guard plus a role check.
//
// Each guard reads the Authorization header, calls Engine.ValidateAccess,
// and injects the validated access info into the request context.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself; all decisions are delegated to
// Engine.ValidateAccess.
package middleware
