// Package auth implements the authentication state facade between the web
// layer and the identity provider.
//
// A Service is an explicitly constructed session context: it holds the
// current identity snapshot, the loading/error state the UI mirrors, and
// a cached profile. It is hydrated per request from the stored session
// and queried by the route guard through Gate. Every mutating operation
// follows the same sequence: mark loading, clear the last error, call the
// provider, record any failure, and always clear loading again.
//
// The facade never navigates. Operations that imply a redirect return a
// Navigation value the caller acts on.
package auth
