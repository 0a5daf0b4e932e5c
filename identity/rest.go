package identity

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/digitrack/digitrack-go/enums"
	"github.com/digitrack/digitrack-go/models"
	"github.com/digitrack/digitrack-go/utils/logger"
)

type Config struct {
	// BaseURL of the auth gateway, e.g. "https://api.example.com".
	BaseURL string
	// Timeout per round trip. Defaults to DefaultTimeout.
	Timeout time.Duration
}

// RESTClient talks to the POST /auth gateway using a discriminated action
// body.
type RESTClient struct {
	http     *resty.Client
	validate *validator.Validate
}

func NewRESTClient(cfg Config) *RESTClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")

	return &RESTClient{
		http:     client,
		validate: validator.New(),
	}
}

type signUpInput struct {
	Email       string `validate:"required,email"`
	Password    string `validate:"required"`
	DisplayName string `validate:"required"`
}

type signInInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type confirmInput struct {
	Email string `validate:"required,email"`
	Code  string `validate:"required"`
}

type resendInput struct {
	Email string `validate:"required,email"`
}

func (c *RESTClient) SignUp(ctx context.Context, email, password, displayName string) (SignUpResult, error) {
	email = normalizeEmail(email)
	in := signUpInput{Email: email, Password: password, DisplayName: displayName}
	if err := c.validate.Struct(in); err != nil {
		return SignUpResult{}, models.NewAuthError(models.ErrInvalidInput, "")
	}

	body, err := c.post(ctx, map[string]interface{}{
		"action":   enums.AuthActionSignup,
		"email":    email,
		"password": password,
		"name":     displayName,
	})
	if err != nil {
		return SignUpResult{}, err
	}

	return SignUpResult{
		Confirmed: gjson.GetBytes(body, "result.UserConfirmed").Bool(),
		SubjectID: gjson.GetBytes(body, "result.UserSub").String(),
	}, nil
}

func (c *RESTClient) ConfirmSignUp(ctx context.Context, email, code string) error {
	email = normalizeEmail(email)
	if err := c.validate.Struct(confirmInput{Email: email, Code: code}); err != nil {
		return models.NewAuthError(models.ErrInvalidInput, "")
	}

	_, err := c.post(ctx, map[string]interface{}{
		"action":           enums.AuthActionConfirm,
		"email":            email,
		"confirmationCode": code,
	})
	return err
}

func (c *RESTClient) ResendCode(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if err := c.validate.Struct(resendInput{Email: email}); err != nil {
		return models.NewAuthError(models.ErrInvalidInput, "")
	}

	_, err := c.post(ctx, map[string]interface{}{
		"action": enums.AuthActionResend,
		"email":  email,
	})
	return err
}

func (c *RESTClient) SignIn(ctx context.Context, email, password string) (SignInResult, error) {
	email = normalizeEmail(email)
	if err := c.validate.Struct(signInInput{Email: email, Password: password}); err != nil {
		return SignInResult{}, models.NewAuthError(models.ErrInvalidInput, "")
	}

	body, err := c.post(ctx, map[string]interface{}{
		"action":   enums.AuthActionLogin,
		"email":    email,
		"password": password,
	})
	if err != nil {
		return SignInResult{}, err
	}

	tokens := models.Tokens{
		IDToken:      gjson.GetBytes(body, "tokens.IdToken").String(),
		AccessToken:  gjson.GetBytes(body, "tokens.AccessToken").String(),
		RefreshToken: gjson.GetBytes(body, "tokens.RefreshToken").String(),
	}
	if !tokens.Complete() {
		return SignInResult{}, models.NewAuthError(models.ErrInternal, "auth response missing tokens")
	}

	user, err := UserFromIDToken(tokens.IDToken)
	if err != nil {
		return SignInResult{}, err
	}

	return SignInResult{Tokens: tokens, User: user}, nil
}

func (c *RESTClient) Refresh(ctx context.Context, refreshToken string) (models.Tokens, error) {
	if refreshToken == "" {
		return models.Tokens{}, models.NewAuthError(models.ErrUnauthorized, "no refresh token")
	}

	body, err := c.post(ctx, map[string]interface{}{
		"action":       enums.AuthActionRefresh,
		"refreshToken": refreshToken,
	})
	if err != nil {
		return models.Tokens{}, err
	}

	tokens := models.Tokens{
		IDToken:      gjson.GetBytes(body, "tokens.IdToken").String(),
		AccessToken:  gjson.GetBytes(body, "tokens.AccessToken").String(),
		RefreshToken: gjson.GetBytes(body, "tokens.RefreshToken").String(),
	}
	if tokens.IDToken == "" || tokens.AccessToken == "" {
		return models.Tokens{}, models.NewAuthError(models.ErrUnauthorized, "refresh rejected")
	}
	return tokens, nil
}

// post sends one action body and returns the raw response on 2xx, or the
// normalized error otherwise.
func (c *RESTClient) post(ctx context.Context, body map[string]interface{}) ([]byte, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post("/auth")
	if err != nil {
		logger.LogWarn("auth request failed", zap.Error(err))
		return nil, models.NewAuthError(models.ErrNetwork, "")
	}

	if resp.IsSuccess() {
		return resp.Body(), nil
	}
	return nil, normalizeProviderError(resp.StatusCode(), resp.Body())
}

// normalizeProviderError is the only place provider error shapes are
// interpreted. Callers never see a raw payload.
func normalizeProviderError(status int, body []byte) *models.AuthError {
	code := gjson.GetBytes(body, "code").String()
	if code == "" {
		code = gjson.GetBytes(body, "__type").String()
	}
	message := gjson.GetBytes(body, "message").String()

	switch code {
	case "UsernameExistsException":
		return models.NewAuthError(models.ErrAccountExists, "")
	case "InvalidPasswordException":
		return models.NewAuthError(models.ErrWeakPassword, "")
	case "InvalidParameterException":
		return models.NewAuthError(models.ErrInvalidInput, "")
	case "NotAuthorizedException":
		return models.NewAuthError(models.ErrInvalidCredentials, "")
	case "UserNotConfirmedException":
		return models.NewAuthError(models.ErrAccountNotConfirmed, "")
	case "CodeMismatchException":
		return models.NewAuthError(models.ErrInvalidCode, "")
	case "ExpiredCodeException":
		return models.NewAuthError(models.ErrExpiredCode, "")
	case "UserNotFoundException":
		return models.NewAuthError(models.ErrNotFound, "")
	}

	logger.LogDebug("unmapped provider error",
		zap.Int("status", status), zap.String("code", code), zap.String("message", message))

	switch status {
	case 400:
		return models.NewAuthError(models.ErrInvalidInput, "")
	case 401, 403:
		return models.NewAuthError(models.ErrUnauthorized, "")
	case 404:
		return models.NewAuthError(models.ErrNotFound, "")
	default:
		return models.NewAuthError(models.ErrInternal, "")
	}
}
