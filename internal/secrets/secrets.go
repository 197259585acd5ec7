// Package secrets resolves API credentials from the environment or a Firestore document.
package secrets

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/j-veylop/doublers-tui/internal/logger"
)

// Names of the secrets the screener reads.
const (
	DhanToken  = "DHAN_TOKEN"
	NewsAPIKey = "NEWSAPI_KEY"
)

// cacheTTL bounds how long a resolved document value is reused.
const cacheTTL = 10 * time.Minute

// Origin reports where a secret was resolved from.
type Origin string

const (
	// OriginEnv means the value came from the process environment.
	OriginEnv Origin = "env"
	// OriginFirestore means the value came from the secrets document.
	OriginFirestore Origin = "firestore"
	// OriginNone means the secret was not found or not yet looked up.
	OriginNone Origin = "none"
)

// Options configures a Store.
type Options struct {
	KeyPath    string
	ProjectID  string
	Collection string
	Document   string
	BaseURL    string
	HTTPClient *http.Client
}

// Store resolves named secrets. It is safe for concurrent use.
type Store struct {
	opts   Options
	getenv func(string) string
	cache  *ristretto.Cache[string, string]

	mu      sync.Mutex
	client  *firestoreClient
	origins map[string]Origin
}

// New creates a Store.
func New(opts Options) (*Store, error) {
	if opts.Collection == "" {
		opts.Collection = "config"
	}
	if opts.Document == "" {
		opts.Document = "keys"
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultFirestoreURL
	}
	if opts.KeyPath == "" {
		opts.KeyPath = "serviceAccountKey.json"
	}

	cache, err := ristretto.NewCache(&ristretto.Config[string, string]{
		NumCounters:        1000,
		MaxCost:            1 << 20,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create secret cache: %w", err)
	}

	return &Store{
		opts:    opts,
		getenv:  os.Getenv,
		cache:   cache,
		origins: make(map[string]Origin),
	}, nil
}

// Lookup returns the value of a secret. The environment variable with the
// same name wins; otherwise the Firestore document field is used. A secret
// that exists nowhere yields "" and a nil error.
func (s *Store) Lookup(ctx context.Context, name string) (string, error) {
	if v := strings.TrimSpace(s.getenv(name)); v != "" {
		s.setOrigin(name, OriginEnv)
		return v, nil
	}

	if v, ok := s.cache.Get(name); ok {
		s.setOrigin(name, OriginFirestore)
		return v, nil
	}

	client, err := s.firestore(ctx)
	if err != nil {
		return "", err
	}

	fields, err := client.getDocument(ctx, s.opts.Collection, s.opts.Document)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", name, err)
	}

	for field, value := range fields {
		if value != "" {
			s.cache.SetWithTTL(field, value, int64(len(value)), cacheTTL)
		}
	}
	s.cache.Wait()

	value := fields[name]
	if value == "" {
		s.setOrigin(name, OriginNone)
		logger.Debug("secret not found", "name", name)
		return "", nil
	}

	s.setOrigin(name, OriginFirestore)
	return value, nil
}

// Source reports where the last lookup of name was resolved from.
func (s *Store) Source(name string) Origin {
	if strings.TrimSpace(s.getenv(name)) != "" {
		return OriginEnv
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.origins[name]; ok {
		return o
	}
	return OriginNone
}

// KeyPath returns the service-account path in use.
func (s *Store) KeyPath() string {
	return s.opts.KeyPath
}

// Close releases the cache.
func (s *Store) Close() {
	s.cache.Close()
}

func (s *Store) setOrigin(name string, o Origin) {
	s.mu.Lock()
	s.origins[name] = o
	s.mu.Unlock()
}

// firestore returns the authorized client, loading the key file on first use.
func (s *Store) firestore(ctx context.Context) (*firestoreClient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client, nil
	}

	// The token source outlives this call, so it is bound to a background context.
	client, err := loadServiceAccount(context.WithoutCancel(ctx), s.opts.KeyPath, s.opts.ProjectID, s.opts.BaseURL, s.opts.HTTPClient)
	if err != nil {
		return nil, err
	}
	s.client = client
	return client, nil
}

// Redact masks all but the last four characters of a secret.
func Redact(value string) string {
	if value == "" {
		return "(unset)"
	}
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	return strings.Repeat("*", len(value)-4) + value[len(value)-4:]
}
