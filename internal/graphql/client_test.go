package graphql_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dashboard/internal/graphql"
)

func TestDo_DecodesData(t *testing.T) {
	var got struct {
		Query     string         `json:"query"`
		Variables map[string]any `json:"variables"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"data": {"filters": [{"id": "f1"}]}}`))
	}))
	defer srv.Close()

	var out struct {
		Filters []struct{ ID string } `json:"filters"`
	}
	c := graphql.NewClient(srv.URL, "tok", time.Second)
	require.NoError(t, c.Do(context.Background(), "query { filters { id } }", map[string]any{"first": 10}, &out))

	assert.Equal(t, "query { filters { id } }", got.Query)
	assert.Equal(t, float64(10), got.Variables["first"])
	require.Len(t, out.Filters, 1)
	assert.Equal(t, "f1", out.Filters[0].ID)
}

func TestDo_GraphQLErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`{"data": null, "errors": [{"message": "bad filter"}, {"message": "denied"}]}`))
	}))
	defer srv.Close()

	err := graphql.NewClient(srv.URL, "", time.Second).Do(context.Background(), "mutation", nil, nil)
	var gqlErr *graphql.Error
	require.True(t, errors.As(err, &gqlErr))
	assert.Len(t, gqlErr.Errors, 2)
	assert.Equal(t, "graphql: bad filter; denied", err.Error())
}

func TestDo_HTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := graphql.NewClient(srv.URL, "", time.Second).Do(context.Background(), "q", nil, nil)
	assert.ErrorContains(t, err, "HTTP 401")
}

func TestDo_NotConfigured(t *testing.T) {
	c := graphql.NewClient("", "", 0)
	assert.False(t, c.Configured())
	assert.ErrorContains(t, c.Do(context.Background(), "q", nil, nil), "no endpoint")
}
