package secrets

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGoogle serves the OAuth token endpoint and one Firestore document.
type fakeGoogle struct {
	server    *httptest.Server
	docHits   atomic.Int32
	status    int
	document  string
	tokenHits atomic.Int32
}

func newFakeGoogle(t *testing.T) *fakeGoogle {
	t.Helper()
	f := &fakeGoogle{
		status: http.StatusOK,
		document: `{
			"name": "projects/proj/databases/(default)/documents/config/keys",
			"fields": {
				"DHAN_TOKEN": {"stringValue": "dhan-secret-token"},
				"NEWSAPI_KEY": {"stringValue": "news-key"},
				"RETRIES": {"integerValue": "3"},
				"ENABLED": {"booleanValue": true}
			}
		}`,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenHits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"test-access","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/v1/projects/proj/databases/(default)/documents/config/keys", func(w http.ResponseWriter, r *http.Request) {
		f.docHits.Add(1)
		if r.Header.Get("Authorization") != "Bearer test-access" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(f.document))
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

// writeServiceAccount writes a key file whose token_uri points at the fake server.
func writeServiceAccount(t *testing.T, tokenURL string) string {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	pemKey := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})

	sa := map[string]string{
		"type":           "service_account",
		"project_id":     "proj",
		"private_key_id": "kid",
		"private_key":    string(pemKey),
		"client_email":   "screener@proj.iam.gserviceaccount.com",
		"token_uri":      tokenURL,
	}
	data, err := json.Marshal(sa)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "serviceAccountKey.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func newTestStore(t *testing.T, f *fakeGoogle, keyPath string) *Store {
	t.Helper()
	store, err := New(Options{KeyPath: keyPath, BaseURL: f.server.URL})
	require.NoError(t, err)
	store.getenv = func(string) string { return "" }
	t.Cleanup(store.Close)
	return store
}

func TestLookup_EnvWins(t *testing.T) {
	store, err := New(Options{KeyPath: filepath.Join(t.TempDir(), "absent.json")})
	require.NoError(t, err)
	defer store.Close()
	store.getenv = func(name string) string {
		if name == DhanToken {
			return " from-env "
		}
		return ""
	}

	v, err := store.Lookup(context.Background(), DhanToken)
	require.NoError(t, err)
	assert.Equal(t, "from-env", v)
	assert.Equal(t, OriginEnv, store.Source(DhanToken))
}

func TestLookup_Firestore(t *testing.T) {
	f := newFakeGoogle(t)
	store := newTestStore(t, f, writeServiceAccount(t, f.server.URL+"/token"))
	ctx := context.Background()

	v, err := store.Lookup(ctx, DhanToken)
	require.NoError(t, err)
	assert.Equal(t, "dhan-secret-token", v)
	assert.Equal(t, OriginFirestore, store.Source(DhanToken))

	// Second field comes from the cached document
	news, err := store.Lookup(ctx, NewsAPIKey)
	require.NoError(t, err)
	assert.Equal(t, "news-key", news)
	assert.Equal(t, int32(1), f.docHits.Load())
	assert.Equal(t, int32(1), f.tokenHits.Load())
}

func TestLookup_IntegerAndUnsupportedFields(t *testing.T) {
	f := newFakeGoogle(t)
	store := newTestStore(t, f, writeServiceAccount(t, f.server.URL+"/token"))
	ctx := context.Background()

	v, err := store.Lookup(ctx, "RETRIES")
	require.NoError(t, err)
	assert.Equal(t, "3", v)

	v, err = store.Lookup(ctx, "ENABLED")
	require.NoError(t, err)
	assert.Empty(t, v)
	assert.Equal(t, OriginNone, store.Source("ENABLED"))
}

func TestLookup_AbsentFieldNotCached(t *testing.T) {
	f := newFakeGoogle(t)
	store := newTestStore(t, f, writeServiceAccount(t, f.server.URL+"/token"))
	ctx := context.Background()

	for range 2 {
		v, err := store.Lookup(ctx, "NOT_THERE")
		require.NoError(t, err)
		assert.Empty(t, v)
	}
	assert.Equal(t, int32(2), f.docHits.Load())
	assert.Equal(t, OriginNone, store.Source("NOT_THERE"))
}

func TestLookup_MissingDocument(t *testing.T) {
	f := newFakeGoogle(t)
	f.status = http.StatusNotFound
	f.document = `{"error":{"code":404}}`
	store := newTestStore(t, f, writeServiceAccount(t, f.server.URL+"/token"))

	v, err := store.Lookup(context.Background(), DhanToken)
	require.NoError(t, err)
	assert.Empty(t, v)
	assert.Equal(t, OriginNone, store.Source(DhanToken))
}

func TestLookup_ServerError(t *testing.T) {
	f := newFakeGoogle(t)
	f.status = http.StatusInternalServerError
	f.document = `oops`
	store := newTestStore(t, f, writeServiceAccount(t, f.server.URL+"/token"))

	_, err := store.Lookup(context.Background(), DhanToken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), DhanToken)
	assert.Contains(t, err.Error(), "500")
}

func TestLookup_MissingServiceAccount(t *testing.T) {
	f := newFakeGoogle(t)
	path := filepath.Join(t.TempDir(), "nope.json")
	store := newTestStore(t, f, path)

	_, err := store.Lookup(context.Background(), DhanToken)
	require.ErrorIs(t, err, ErrServiceAccountMissing)
	assert.Contains(t, err.Error(), path)
}

func TestLookup_InvalidServiceAccount(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"Empty", ""},
		{"Whitespace", "  \n"},
		{"NotJSON", "{not json"},
		{"NoKey", `{"type":"service_account","project_id":"proj"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeGoogle(t)
			path := filepath.Join(t.TempDir(), "sa.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))
			store := newTestStore(t, f, path)

			_, err := store.Lookup(context.Background(), DhanToken)
			require.ErrorIs(t, err, ErrServiceAccountInvalid)
			assert.Contains(t, err.Error(), path)
		})
	}
}

func TestSource_Unknown(t *testing.T) {
	store, err := New(Options{})
	require.NoError(t, err)
	defer store.Close()
	store.getenv = func(string) string { return "" }

	assert.Equal(t, OriginNone, store.Source("ANYTHING"))
	assert.Equal(t, "serviceAccountKey.json", store.KeyPath())
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "(unset)", Redact(""))
	assert.Equal(t, "***", Redact("abc"))
	assert.Equal(t, "******cret", Redact("top-secret"))
}
