package models

// Tokens is the credential set issued by the identity backend. IDToken and
// AccessToken are short-lived JWTs, RefreshToken is the longer-lived opaque
// credential used to obtain new ones.
type Tokens struct {
	IDToken      string `json:"idToken"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Complete reports whether every credential is present. A session is either
// fully present or fully absent; partial token sets are never persisted.
func (t Tokens) Complete() bool {
	return t.IDToken != "" && t.AccessToken != "" && t.RefreshToken != ""
}

// Session ties a token set to the user it was issued for.
type Session struct {
	Tokens Tokens `json:"tokens"`
	User   User   `json:"user"`
}
