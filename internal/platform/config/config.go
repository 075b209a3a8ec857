package config

import (
	"os"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr string

	// LedgerURL points at the remote ledger endpoint that is the system of
	// record for bookings.
	LedgerURL string

	// AdminKeyPEM holds the service's long-lived signing key (EC PRIVATE KEY
	// PEM). It authorizes server-initiated commits and delegation minting.
	AdminKeyPEM string

	JWTSigningKey string

	// RemoteTimeout bounds every outbound call (ledger, payment gateway,
	// notifier). An unbounded remote call would starve a worker slot.
	RemoteTimeout time.Duration

	Payment PaymentConfig
	Email   EmailConfig
	Redis   RedisConfig
}

// PaymentConfig holds payment-gateway credentials and the redirect target
// presented to the customer after payment.
type PaymentConfig struct {
	BaseURL     string
	Key         string
	Secret      string
	CallbackURL string
}

// EmailConfig holds the OAuth material for the mail provider.
type EmailConfig struct {
	ClientID     string
	ClientSecret string
	AccessToken  string
	RefreshToken string
	TokenURL     string
	SendURL      string
	BCC          string
}

// RedisConfig configures the optional Redis connection used by the
// confirmation idempotency store. An empty URL selects the in-memory store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("FLEETBOOK_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	ledgerURL := os.Getenv("LEDGER_URL")
	if ledgerURL == "" {
		ledgerURL = "http://localhost:4943"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	remoteTimeout := 30 * time.Second
	if v := os.Getenv("REMOTE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			remoteTimeout = d
		}
	}

	paymentBase := os.Getenv("PAYMENT_BASE_URL")
	if paymentBase == "" {
		paymentBase = "https://api.razorpay.com/v1"
	}
	callbackURL := os.Getenv("PAYMENT_CALLBACK_URL")
	if callbackURL == "" {
		callbackURL = "http://localhost:8080/payment"
	}

	tokenURL := os.Getenv("EMAIL_TOKEN_URL")
	if tokenURL == "" {
		tokenURL = "https://oauth2.googleapis.com/token"
	}
	sendURL := os.Getenv("EMAIL_SEND_URL")
	if sendURL == "" {
		sendURL = "https://www.googleapis.com/gmail/v1/users/me/messages/send"
	}

	return Server{
		Addr:          addr,
		LedgerURL:     ledgerURL,
		AdminKeyPEM:   os.Getenv("ADMIN_KEY_PEM"),
		JWTSigningKey: jwtSigningKey,
		RemoteTimeout: remoteTimeout,
		Payment: PaymentConfig{
			BaseURL:     paymentBase,
			Key:         os.Getenv("PAYMENT_KEY"),
			Secret:      os.Getenv("PAYMENT_SECRET"),
			CallbackURL: callbackURL,
		},
		Email: EmailConfig{
			ClientID:     os.Getenv("EMAIL_CLIENT_ID"),
			ClientSecret: os.Getenv("EMAIL_CLIENT_SECRET"),
			AccessToken:  os.Getenv("EMAIL_ACCESS_TOKEN"),
			RefreshToken: os.Getenv("EMAIL_REFRESH_TOKEN"),
			TokenURL:     tokenURL,
			SendURL:      sendURL,
			BCC:          os.Getenv("EMAIL_BCC"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
	}
}
