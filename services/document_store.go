package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"review-workflow-api/config"

	"github.com/hashicorp/go-retryablehttp"
)

// ErrDocumentNotFound is returned when the document store has no such document locale.
var ErrDocumentNotFound = errors.New("document not found")

// DocumentStore is the content store collaborator: it reports document
// modification times and the locales a document exists in.
type DocumentStore interface {
	DocumentUpdatedAt(ctx context.Context, contentType, documentID, locale string) (time.Time, error)
	DocumentLocales(ctx context.Context, contentType, documentID string) ([]string, error)
}

// HTTPDocumentStore reads document metadata from the content platform's
// HTTP API:
//
//	GET {base}/documents/{contentType}/{documentId}?locale={locale} -> {"updatedAt": RFC3339}
//	GET {base}/documents/{contentType}/{documentId}/locales         -> {"locales": [...]}
type HTTPDocumentStore struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPDocumentStore returns a client that retries connection errors and
// 5xx responses before giving up.
func NewHTTPDocumentStore(baseURL, token string) *HTTPDocumentStore {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 200 * time.Millisecond
	retryClient.RetryWaitMax = 2 * time.Second
	retryClient.Logger = log.New(config.LogWriter, "[document-store] ", log.LstdFlags)
	client := retryClient.StandardClient()
	client.Timeout = 10 * time.Second

	return &HTTPDocumentStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  client,
	}
}

func (s *HTTPDocumentStore) DocumentUpdatedAt(ctx context.Context, contentType, documentID, locale string) (time.Time, error) {
	endpoint := fmt.Sprintf("%s/documents/%s/%s?locale=%s",
		s.baseURL, url.PathEscape(contentType), url.PathEscape(documentID), url.QueryEscape(locale))

	var body struct {
		UpdatedAt *time.Time `json:"updatedAt"`
	}
	if err := s.getJSON(ctx, endpoint, &body); err != nil {
		return time.Time{}, err
	}
	if body.UpdatedAt == nil {
		return time.Time{}, fmt.Errorf("document %s/%s (%s) has no updatedAt", contentType, documentID, locale)
	}
	return body.UpdatedAt.UTC(), nil
}

func (s *HTTPDocumentStore) DocumentLocales(ctx context.Context, contentType, documentID string) ([]string, error) {
	endpoint := fmt.Sprintf("%s/documents/%s/%s/locales",
		s.baseURL, url.PathEscape(contentType), url.PathEscape(documentID))

	var body struct {
		Locales []string `json:"locales"`
	}
	if err := s.getJSON(ctx, endpoint, &body); err != nil {
		return nil, err
	}
	if body.Locales == nil {
		return []string{}, nil
	}
	return body.Locales, nil
}

func (s *HTTPDocumentStore) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("document store request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrDocumentNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("document store returned HTTP %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode document store response: %w", err)
	}
	return nil
}
