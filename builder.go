package authflow

import (
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/authflow/session"
)

// Builder assembles a Client. A Builder is single use: configure it during
// initialization, call Build once, and discard it.
type Builder struct {
	config Config

	storage    session.Storage
	redis      redis.UniversalClient
	httpClient *http.Client
	navigator  Navigator
	auditSink  AuditSink
	language   func() string

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithStorage sets the token record storage. It takes precedence over
// WithRedis and Session.FileDir.
func (b *Builder) WithStorage(storage Storage) *Builder {
	b.storage = storage
	return b
}

// WithRedis stores the token record in Redis under Session.RedisPrefix.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithHTTPClient sets the base HTTP client. Its Transport is wrapped, not
// replaced.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

// WithNavigator sets the route changer used for redirects.
func (b *Builder) WithNavigator(nav Navigator) *Builder {
	b.navigator = nav
	return b
}

// WithLanguage sets the source of the current UI language. Without it the
// client uses API.Language and SetLanguage.
func (b *Builder) WithLanguage(lang func() string) *Builder {
	b.language = lang
	return b
}

// WithAuditSink sets the audit destination. Auditing still needs
// Audit.Enabled.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the logger of every component.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.config.Logger = logger
	return b
}

// WithMetricsEnabled toggles in-process metrics.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the request latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, restores the persisted session and
// returns the Client.
func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	storage, err := b.resolveStorage(cfg)
	if err != nil {
		return nil, err
	}

	c, err := newClient(clientDeps{
		config:     cfg,
		storage:    storage,
		httpClient: b.httpClient,
		navigator:  b.navigator,
		auditSink:  b.auditSink,
		language:   b.language,
	})
	if err != nil {
		return nil, err
	}

	b.built = true
	return c, nil
}

func (b *Builder) resolveStorage(cfg Config) (session.Storage, error) {
	switch {
	case b.storage != nil:
		return b.storage, nil
	case b.redis != nil:
		return session.NewRedisStorage(b.redis, cfg.Session.RedisPrefix, cfg.Session.RedisTTL), nil
	case cfg.Session.FileDir != "":
		var sealer *session.Sealer
		if cfg.Session.Passphrase != "" {
			s, err := session.NewSealer(cfg.Session.Passphrase)
			if err != nil {
				return nil, err
			}
			sealer = s
		}
		return session.NewFileStorage(cfg.Session.FileDir, sealer)
	default:
		return session.NewMemoryStorage(), nil
	}
}
