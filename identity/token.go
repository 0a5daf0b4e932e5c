package identity

import (
	"encoding/base64"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tidwall/gjson"

	"github.com/digitrack/digitrack-go/models"
)

// UserFromIDToken decodes the user identity out of the ID token payload
// without verifying the signature; the backend already did that.
func UserFromIDToken(idToken string) (models.User, error) {
	parts := strings.Split(idToken, ".")
	if len(parts) != 3 {
		return models.User{}, models.NewAuthError(models.ErrInternal, "malformed id token")
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return models.User{}, models.NewAuthError(models.ErrInternal, "undecodable id token payload")
	}

	user := models.User{
		ID:       gjson.GetBytes(payload, "sub").String(),
		Email:    gjson.GetBytes(payload, "email").String(),
		Username: gjson.GetBytes(payload, "cognito:username").String(),
	}
	if user.ID == "" {
		return models.User{}, models.NewAuthError(models.ErrInternal, "id token missing subject claim")
	}
	return user, nil
}

// TokenExpiry extracts the exp claim. ok is false when the token cannot
// be parsed or carries no expiry.
func TokenExpiry(token string) (time.Time, bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// TokenValidAt reports whether the token is still usable at the given
// instant. A token expiring exactly at that instant counts as expired.
func TokenValidAt(token string, at time.Time) bool {
	exp, ok := TokenExpiry(token)
	if !ok {
		return false
	}
	return at.Before(exp)
}
