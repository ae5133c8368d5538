// Package supabase implements the HTTP client for the Supabase Auth API.
// It covers the operations the gateway delegates to the identity provider:
// password and OAuth sign-in, sign-up, sign-out, session refresh, OTP
// verification, password recovery and user attribute updates, plus a local
// auth state change feed mirroring the provider's event model.
package supabase
