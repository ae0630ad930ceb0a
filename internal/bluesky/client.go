package bluesky

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/blackmichael/skygazer/internal/domain"
	"github.com/blackmichael/skygazer/internal/lexicon"
)

const DefaultPDS = "https://bsky.social"

var _ domain.ProtocolClient = (*Client)(nil)

// Options configure a Client. Zero values select defaults.
type Options struct {
	// RateLimit caps requests per second. Zero or less disables limiting.
	RateLimit float64
	Timeout   time.Duration
	Logger    *slog.Logger

	// HTTPClient replaces the instrumented default client.
	HTTPClient *http.Client
}

// Client is an XRPC client for the app.bsky and com.atproto methods the
// feed pipeline uses. It is safe for concurrent use.
type Client struct {
	pds        string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
	now        func() time.Time

	mu             sync.RWMutex
	session        session
	acceptLabelers []string

	// serializes refreshes
	refreshMu sync.Mutex
}

type session struct {
	accessJwt  string
	refreshJwt string
	did        string
	handle     string
}

// NewClient creates a new Bluesky API client. If pds is empty, it defaults
// to https://bsky.social.
func NewClient(pds string, opts Options) *Client {
	if pds == "" {
		pds = DefaultPDS
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{
			Timeout:   opts.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	return &Client{
		pds:        strings.TrimSuffix(pds, "/"),
		httpClient: hc,
		limiter:    rate.NewLimiter(limit, 1),
		logger:     opts.Logger,
		now:        time.Now,
	}
}

// Login authenticates with the PDS and stores the session tokens. Use an
// App Password, not your account password.
func (c *Client) Login(ctx context.Context, identifier, password string) error {
	body := lexicon.CreateSessionInput{
		Identifier: identifier,
		Password:   password,
	}

	var resp lexicon.SessionOutput
	if err := c.post(ctx, nsidCreateSession, body, &resp); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	if resp.Active != nil && !*resp.Active {
		return fmt.Errorf("create session: account %s is deactivated: %w", resp.Handle, domain.ErrAuth)
	}

	c.mu.Lock()
	c.session = session{
		accessJwt:  resp.AccessJwt,
		refreshJwt: resp.RefreshJwt,
		did:        resp.DID,
		handle:     resp.Handle,
	}
	c.mu.Unlock()

	c.logger.Info("logged in", "did", resp.DID, "handle", resp.Handle, "pds", c.pds)
	return nil
}

// DID returns the authenticated user's DID. Only valid after Login.
func (c *Client) DID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session.did
}

// Handle returns the authenticated user's handle. Only valid after Login.
func (c *Client) Handle() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session.handle
}

// SetAcceptLabelers sets the labelers whose labels the AppView should
// attach to hydrated views.
func (c *Client) SetAcceptLabelers(dids []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.acceptLabelers = append([]string(nil), dids...)
}

func (c *Client) tokens() session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

func (c *Client) labelersHeader() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return strings.Join(c.acceptLabelers, ", ")
}
