// Package auth provides the route guard middleware for the web application.
//
// The guard runs before each navigation: it validates the stored session
// (refreshing it transparently when expired), resolves the profile status
// through the facade's gate query, and redirects unauthenticated users to
// login, non-active accounts to their status page, and un-onboarded users
// to the welcome flow. A companion guest guard keeps authenticated users
// away from the login and register pages, replaying the intended route
// captured before authentication.
package auth
