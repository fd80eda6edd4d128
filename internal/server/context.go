package server

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/oauth2"

	"github.com/teemow/textcal/internal/google"
	"github.com/teemow/textcal/internal/instrumentation"
	"github.com/teemow/textcal/internal/mirror"
	"github.com/teemow/textcal/internal/planner"
)

// ErrShutdown is returned by ServerContext methods after Shutdown.
var ErrShutdown = errors.New("server is shutting down")

// Options configures a ServerContext.
type Options struct {
	Planner *planner.Service
	// DB and Store are nil when the local mirror is disabled.
	DB    *mirror.DB
	Store *mirror.Store
	// TokenProvider supplies the bearer token for transports that do not
	// carry one per request (stdio and the CLI).
	TokenProvider google.TokenProvider
	Account       string
	Metrics       *instrumentation.Metrics
}

// ServerContext holds the long-lived dependencies shared by the HTTP API,
// the MCP tools and the health checks.
type ServerContext struct {
	ctx     context.Context
	cancel  context.CancelFunc
	opts    Options
	mu      sync.RWMutex
	closing bool
}

// NewServerContext creates a ServerContext whose Context is cancelled on
// Shutdown.
func NewServerContext(ctx context.Context, opts Options) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)
	if opts.Account == "" {
		opts.Account = google.DefaultAccount
	}
	return &ServerContext{ctx: shutdownCtx, cancel: cancel, opts: opts}
}

// Context returns the server context.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Planner returns the planning service.
func (sc *ServerContext) Planner() *planner.Service {
	return sc.opts.Planner
}

// Store returns the mirror store, or nil when the mirror is disabled.
func (sc *ServerContext) Store() *mirror.Store {
	return sc.opts.Store
}

// Metrics returns the metrics recorder, which may be nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.opts.Metrics
}

// Token returns the token of account from the token provider. An empty
// account means the configured one.
func (sc *ServerContext) Token(ctx context.Context, account string) (*oauth2.Token, error) {
	if sc.IsShutdown() {
		return nil, ErrShutdown
	}
	if account == "" {
		account = sc.opts.Account
	}
	return google.ResolveToken(ctx, sc.opts.TokenProvider, account)
}

// Account returns the account name tokens are looked up for.
func (sc *ServerContext) Account() string {
	return sc.opts.Account
}

// Authorizer completes the OAuth authorization code flow for an account.
type Authorizer interface {
	AuthCodeURL(state string) (string, error)
	Exchange(ctx context.Context, account, code string) (*oauth2.Token, error)
}

// Authorizer returns the token provider as an Authorizer, or nil when it
// cannot obtain new tokens.
func (sc *ServerContext) Authorizer() Authorizer {
	a, _ := sc.opts.TokenProvider.(Authorizer)
	return a
}

// Ping checks the mirror database. It succeeds when the mirror is disabled.
func (sc *ServerContext) Ping(ctx context.Context) error {
	if sc.opts.DB == nil {
		return nil
	}
	return sc.opts.DB.PingContext(ctx)
}

// IsShutdown returns whether the server has been shut down.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.closing
}

// Shutdown cancels the server context and closes the mirror database.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.closing {
		return nil
	}
	sc.closing = true
	sc.cancel()

	if sc.opts.DB != nil {
		return sc.opts.DB.Close()
	}
	return nil
}
