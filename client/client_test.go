package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestClientAssignAndErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "/api/v1/review-workflow/assign", r.URL.Path)

		var req AssignRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		if req.AssignedDocumentID == "taken" {
			w.WriteHeader(http.StatusConflict)
			w.Write([]byte(`{"error":"a pending review already exists","kind":"ConflictError"}`))
			return
		}
		w.Write([]byte(`{"data":{"documentId":"rev-1","status":"pending","locale":"en"}}`))
	}))
	defer srv.Close()

	c := NewWithHTTPClient(srv.URL+"/", "tok", srv.Client())

	review, err := c.Assign(context.Background(), AssignRequest{
		AssignedContentType: "api::article.article", AssignedDocumentID: "doc1", Locale: "en", AssignedTo: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "rev-1", review.DocumentID)
	assert.True(t, review.IsPending())

	_, err = c.Assign(context.Background(), AssignRequest{AssignedDocumentID: "taken"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, "ConflictError", apiErr.Kind)
}

func TestClientStatusWithoutReview(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/review-workflow/status/api::article.article/doc1/en", r.URL.Path)
		w.Write([]byte(`{"data":null}`))
	}))
	defer srv.Close()

	review, err := NewWithHTTPClient(srv.URL, "", srv.Client()).Status(context.Background(), "api::article.article", "doc1", "en")
	require.NoError(t, err)
	assert.Nil(t, review)
}

func TestClientPublishCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"allowed":false,"reason":"REVIEW_PENDING","message":"pending"}}`))
	}))
	defer srv.Close()

	check, err := NewWithHTTPClient(srv.URL, "", srv.Client()).PublishCheck(context.Background(), "api::article.article", "doc1", "en")
	require.NoError(t, err)
	assert.False(t, check.Allowed)
	assert.Equal(t, "REVIEW_PENDING", check.Reason)
}

func TestStatusLoaderBatchesConcurrentLoads(t *testing.T) {
	var mu sync.Mutex
	var requests [][]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/review-workflow/status/batch/api::article.article/en", r.URL.Path)
		var body struct {
			DocumentIDs []string `json:"documentIds"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		mu.Lock()
		requests = append(requests, body.DocumentIDs)
		mu.Unlock()
		w.Write([]byte(`{"data":{"a":"approved","b":null,"c":null}}`))
	}))
	defer srv.Close()

	loader := NewStatusLoader(NewWithHTTPClient(srv.URL, "", srv.Client()), 20*time.Millisecond, 200*time.Millisecond)

	ids := []string{"a", "b", "c", "a"}
	results := make([]*string, len(ids))
	g, ctx := errgroup.WithContext(context.Background())
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			status, err := loader.Load(ctx, "api::article.article", "en", id)
			results[i] = status
			return err
		})
	}
	require.NoError(t, g.Wait())

	require.Len(t, requests, 1)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, requests[0])
	require.NotNil(t, results[0])
	assert.Equal(t, "approved", *results[0])
	assert.Nil(t, results[1])
	assert.Nil(t, results[2])
	assert.Equal(t, results[0], results[3])
}
