package enums

type AuthStatus string

const (
	AuthStatusAnonymous            AuthStatus = "anonymous"
	AuthStatusAuthenticating       AuthStatus = "authenticating"
	AuthStatusAuthenticated        AuthStatus = "authenticated"
	AuthStatusAwaitingConfirmation AuthStatus = "awaiting_confirmation"
	AuthStatusConfirming           AuthStatus = "confirming"
)
