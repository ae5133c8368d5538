package supabase

// Auth API endpoint path constants.
const (
	// SignupPath is the endpoint path for user registration.
	SignupPath = "/auth/v1/signup"

	// PasswordGrantPath is the endpoint path for sign-in with the password grant.
	PasswordGrantPath = "/auth/v1/token?grant_type=password"

	// RefreshGrantPath is the endpoint path for session refresh.
	RefreshGrantPath = "/auth/v1/token?grant_type=refresh_token"

	// PKCEGrantPath is the endpoint path for the OAuth PKCE code exchange.
	PKCEGrantPath = "/auth/v1/token?grant_type=pkce"

	// AuthorizePath is the endpoint path starting the OAuth consent flow.
	AuthorizePath = "/auth/v1/authorize"

	// LogoutPath is the endpoint path for sign-out.
	LogoutPath = "/auth/v1/logout"

	// UserPath is the endpoint path for fetching and updating the current user.
	UserPath = "/auth/v1/user"

	// RecoverPath is the endpoint path for password recovery emails.
	RecoverPath = "/auth/v1/recover"

	// VerifyPath is the endpoint path for OTP / email verification.
	VerifyPath = "/auth/v1/verify"

	// ResendPath is the endpoint path for re-sending a verification email.
	ResendPath = "/auth/v1/resend"
)
