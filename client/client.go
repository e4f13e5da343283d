// Package client talks to the review workflow REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"review-workflow-api/models"

	"github.com/hashicorp/go-retryablehttp"
)

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Kind       string `json:"kind"`
	Message    string `json:"error"`
}

func (e *APIError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Kind, e.Message)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// Client is a thin HTTP client for /api/v1/review-workflow.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New returns a client for the API at baseURL (e.g. http://localhost:8080).
// The token is sent as a bearer token on every request.
func New(baseURL, token string) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 2
	retryClient.RetryWaitMin = 100 * time.Millisecond
	retryClient.RetryWaitMax = time.Second
	retryClient.Logger = nil
	httpClient := retryClient.StandardClient()
	httpClient.Timeout = 15 * time.Second

	return NewWithHTTPClient(baseURL, token, httpClient)
}

func NewWithHTTPClient(baseURL, token string, httpClient *http.Client) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/") + "/api/v1/review-workflow",
		token:   token,
		http:    httpClient,
	}
}

// AssignRequest mirrors the POST /assign body.
type AssignRequest struct {
	AssignedContentType string `json:"assignedContentType"`
	AssignedDocumentID  string `json:"assignedDocumentId"`
	Locale              string `json:"locale"`
	AssignedTo          int    `json:"assignedTo"`
	Comments            string `json:"comments,omitempty"`
}

// PublishCheck is the publish gate answer for one document locale.
type PublishCheck struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

func (c *Client) Assign(ctx context.Context, req AssignRequest) (*models.Review, error) {
	var review models.Review
	if err := c.do(ctx, http.MethodPost, "/assign", req, &review); err != nil {
		return nil, err
	}
	return &review, nil
}

func (c *Client) Approve(ctx context.Context, reviewID, locale, comment string) (*models.Review, error) {
	var review models.Review
	body := map[string]string{"comment": comment}
	if err := c.do(ctx, http.MethodPut, "/approve/"+path(reviewID, locale), body, &review); err != nil {
		return nil, err
	}
	return &review, nil
}

func (c *Client) Reject(ctx context.Context, reviewID, locale, reason string) (*models.Review, error) {
	var review models.Review
	body := map[string]string{"rejectionReason": reason}
	if err := c.do(ctx, http.MethodPut, "/reject/"+path(reviewID, locale), body, &review); err != nil {
		return nil, err
	}
	return &review, nil
}

func (c *Client) ReRequest(ctx context.Context, reviewID, locale, comment string) (*models.Review, error) {
	var review models.Review
	body := map[string]string{"comment": comment}
	if err := c.do(ctx, http.MethodPut, "/re-request/"+path(reviewID, locale), body, &review); err != nil {
		return nil, err
	}
	return &review, nil
}

// Status returns the current review for the key, or nil when there is none.
func (c *Client) Status(ctx context.Context, contentType, documentID, locale string) (*models.Review, error) {
	var review *models.Review
	if err := c.do(ctx, http.MethodGet, "/status/"+path(contentType, documentID, locale), nil, &review); err != nil {
		return nil, err
	}
	return review, nil
}

// BatchStatuses maps each document id to its current review status or nil.
func (c *Client) BatchStatuses(ctx context.Context, contentType, locale string, documentIDs []string) (map[string]*string, error) {
	statuses := map[string]*string{}
	body := map[string][]string{"documentIds": documentIDs}
	if err := c.do(ctx, http.MethodPost, "/status/batch/"+path(contentType, locale), body, &statuses); err != nil {
		return nil, err
	}
	return statuses, nil
}

func (c *Client) PublishCheck(ctx context.Context, contentType, documentID, locale string) (*PublishCheck, error) {
	var check PublishCheck
	if err := c.do(ctx, http.MethodGet, "/publish-check/"+path(contentType, documentID, locale), nil, &check); err != nil {
		return nil, err
	}
	return &check, nil
}

func path(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return strings.Join(escaped, "/")
}

// do sends a JSON request and decodes the "data" member of the response into out.
func (c *Client) do(ctx context.Context, method, endpoint string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	envelope := struct {
		Data interface{} `json:"data"`
	}{Data: out}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
