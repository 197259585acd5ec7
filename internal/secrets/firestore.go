package secrets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/j-veylop/doublers-tui/internal/logger"
)

const (
	// datastoreScope grants read access to Firestore documents.
	datastoreScope = "https://www.googleapis.com/auth/datastore"

	// DefaultFirestoreURL is the public Firestore REST endpoint.
	DefaultFirestoreURL = "https://firestore.googleapis.com"
)

var (
	// ErrServiceAccountMissing is returned when the service-account file does not exist.
	ErrServiceAccountMissing = errors.New("service account file not found")
	// ErrServiceAccountInvalid is returned when the service-account file is empty or malformed.
	ErrServiceAccountInvalid = errors.New("service account file is invalid")
)

// serviceAccount holds the key file fields checked before building the JWT config.
type serviceAccount struct {
	Type        string `json:"type"`
	ProjectID   string `json:"project_id"`
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
}

// firestoreClient reads documents over the Firestore REST API.
type firestoreClient struct {
	http      *http.Client
	baseURL   string
	projectID string
}

// loadServiceAccount reads the key file and builds an authorized client.
func loadServiceAccount(ctx context.Context, path, projectID, baseURL string, base *http.Client) (*firestoreClient, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrServiceAccountMissing, path)
		}
		return nil, fmt.Errorf("failed to read service account %s: %w", path, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrServiceAccountInvalid, path)
	}

	var sa serviceAccount
	if err := json.Unmarshal(data, &sa); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrServiceAccountInvalid, path, err)
	}

	if sa.PrivateKey == "" {
		return nil, fmt.Errorf("%w: %s has no private_key", ErrServiceAccountInvalid, path)
	}

	conf, err := google.JWTConfigFromJSON(data, datastoreScope)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrServiceAccountInvalid, path, err)
	}

	if projectID == "" {
		projectID = sa.ProjectID
	}
	if projectID == "" {
		return nil, fmt.Errorf("%w: %s has no project_id", ErrServiceAccountInvalid, path)
	}

	if base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	}
	client := oauth2.NewClient(ctx, conf.TokenSource(ctx))
	if base != nil {
		client.Timeout = base.Timeout
	}

	logger.Debug("service account loaded", "email", sa.ClientEmail, "project", projectID)

	return &firestoreClient{
		http:      client,
		baseURL:   baseURL,
		projectID: projectID,
	}, nil
}

// documentResponse is the subset of a Firestore document we read.
type documentResponse struct {
	Fields map[string]fieldValue `json:"fields"`
}

// fieldValue is a Firestore typed value. Only scalar string-like kinds are used.
type fieldValue struct {
	StringValue  *string `json:"stringValue,omitempty"`
	IntegerValue *string `json:"integerValue,omitempty"`
}

func (v fieldValue) text() (string, bool) {
	switch {
	case v.StringValue != nil:
		return *v.StringValue, true
	case v.IntegerValue != nil:
		return *v.IntegerValue, true
	default:
		return "", false
	}
}

// getDocument fetches collection/document and returns its string fields.
// A missing document yields an empty map.
func (c *firestoreClient) getDocument(ctx context.Context, collection, document string) (map[string]string, error) {
	endpoint := fmt.Sprintf("%s/v1/projects/%s/databases/(default)/documents/%s/%s",
		c.baseURL, url.PathEscape(c.projectID), url.PathEscape(collection), url.PathEscape(document))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create document request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("document request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read document response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return map[string]string{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("document %s/%s request failed (status %d): %s",
			collection, document, resp.StatusCode, string(body))
	}

	var doc documentResponse
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse document %s/%s: %w", collection, document, err)
	}

	fields := make(map[string]string, len(doc.Fields))
	for name, v := range doc.Fields {
		if s, ok := v.text(); ok {
			fields[name] = s
		}
	}
	return fields, nil
}
