package enums

// AuthAction is the discriminator sent in the body of every POST /auth call.
type AuthAction string

const (
	AuthActionLogin   AuthAction = "login"
	AuthActionSignup  AuthAction = "signup"
	AuthActionConfirm AuthAction = "confirm"
	AuthActionResend  AuthAction = "resend"
	AuthActionRefresh AuthAction = "refresh"
)
