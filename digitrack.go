// Package digitrack assembles the client SDK: session state, token
// persistence, the identity backend client and the authenticated API
// client. Screens observe SDK.State and dispatch operations on SDK.Auth;
// they never write state directly.
package digitrack

import (
	"github.com/digitrack/digitrack-go/apiclient"
	"github.com/digitrack/digitrack-go/auth"
	"github.com/digitrack/digitrack-go/config"
	"github.com/digitrack/digitrack-go/identity"
	"github.com/digitrack/digitrack-go/session"
	"github.com/digitrack/digitrack-go/tokenstore"
	"github.com/digitrack/digitrack-go/utils/logger"
)

type SDK struct {
	State *session.Container
	Auth  *auth.Service
	API   *apiclient.Client
}

// New wires the SDK with the default file-backed token store. The caller
// runs Auth.CheckStatus before showing any screen.
func New(cfg config.Config) *SDK {
	return NewWithStore(cfg, tokenstore.NewFileStore(tokenstore.FileConfig{Path: cfg.TokenFile}))
}

// NewWithStore wires the SDK with a custom token store, e.g. a
// tokenstore.RedisStore on shared kiosk devices.
func NewWithStore(cfg config.Config, store tokenstore.Store) *SDK {
	logger.Init(&logger.Config{
		Level:       cfg.LogLevel,
		Env:         cfg.Env,
		ServiceName: "digitrack-client",
	})

	state := session.NewContainer()
	ids := identity.NewRESTClient(identity.Config{BaseURL: cfg.AuthURL, Timeout: cfg.Timeout})

	authSvc := auth.NewService(ids, store, state)
	api := apiclient.New(apiclient.Config{BaseURL: cfg.APIURL, Timeout: cfg.Timeout}, authSvc)

	return &SDK{State: state, Auth: authSvc, API: api}
}
