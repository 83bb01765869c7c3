// Package provider defines the pluggable mail-provider abstraction and the
// name-keyed registry used to resolve concrete implementations.
package provider

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	apperrors "github.com/spendlens/spendlens/internal/errors"
)

// Message is the canonical normalized shape every provider implementation must
// produce regardless of wire format.
type Message struct {
	Provider          string
	ProviderMessageID string
	ThreadID          string
	FromEmail         string
	ToEmails          []string
	Subject           string
	BodyText          string
	BodyHTML          string
	ReceivedAt        time.Time
	Checksum          string
}

// MessagePage is one page of message summaries plus the opaque cursor for the
// next page. An empty NextCursor means the listing is exhausted.
type MessagePage struct {
	Messages   []Message
	NextCursor string
}

// Credentials is the bundle a provider needs to establish a session. Access and
// refresh tokens come from the stored connected account; client id/secret are
// provider-level static configuration.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	TokenExpiry  time.Time
	ClientID     string
	ClientSecret string
}

// Provider is the uniform capability set over one external mail service.
// Implementations hold session state only between Connect and Disconnect; a
// connected instance must never be shared across unrelated job executions.
type Provider interface {
	// Connect establishes a session from the given credentials, refreshing
	// expired tokens when possible.
	Connect(ctx context.Context, creds Credentials) error
	// FetchMessages returns up to limit message summaries starting at cursor.
	FetchMessages(ctx context.Context, cursor string, limit int) (*MessagePage, error)
	// FetchMessageBody returns the full message including decoded body parts.
	FetchMessageBody(ctx context.Context, messageID string) (*Message, error)
	// Disconnect releases the session. Safe to call when not connected.
	Disconnect()
}

// Factory constructs a fresh, unconnected provider instance.
type Factory func() Provider

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register adds a provider factory under a name. Later registrations for the
// same name win, which lets tests swap in fakes.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[normalize(name)] = factory
}

// New resolves a provider implementation by name. Unknown names fail with a
// configuration error.
func New(name string) (Provider, error) {
	registryMu.RLock()
	factory, ok := registry[normalize(name)]
	registryMu.RUnlock()
	if !ok {
		return nil, apperrors.Configurationf("unsupported mail provider %q", name)
	}
	return factory(), nil
}

// Names returns the registered provider names, sorted.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
