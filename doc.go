// Package main provides the entry point for the SupaBridge authentication
// gateway. It runs a web server using the Fiber framework that fronts
// Supabase Auth with cookie-based sessions: password and social sign-in,
// registration with email confirmation, password recovery, a route guard
// and a profile/preferences store backed by gorm.
package main
