package bookapi

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/folio/internal/domain"
	"github.com/mmcdole/folio/internal/log"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", "secret", Options{}, log.NullLogger())
}

func TestGetRecommendationsRequestBody(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/recommendations", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"recommendations":[],"is_fallback":false,"recommendation_type":"similar"}`))
	})
	client.now = func() time.Time { return time.UnixMilli(1700000000123) }

	_, err := client.GetRecommendations(context.Background(), domain.RecommendationRequest{
		Strategy: domain.StrategySimilar,
		Genre:    "Mystery",
	})
	require.NoError(t, err)

	assert.Equal(t, "similar", got["recommendation_type"])
	assert.EqualValues(t, 10, got["limit"])
	assert.Equal(t, "Mystery", got["genre"])
	assert.EqualValues(t, 1700000000123, got["_timestamp"])
	assert.True(t, strings.HasPrefix(got["_client_id"].(string), "SIM_"))
	assert.True(t, strings.HasSuffix(got["_seed"].(string), "similar"))
	assert.Equal(t, true, got["_force_unique"])
}

func TestGetRecommendationsOmitsEmptyGenre(t *testing.T) {
	var raw []byte
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{"recommendations":[]}`))
	})

	_, err := client.GetRecommendations(context.Background(), domain.RecommendationRequest{Strategy: domain.StrategyAI, Limit: 3})
	require.NoError(t, err)
	assert.False(t, bytes.Contains(raw, []byte(`"genre"`)))
	assert.True(t, bytes.Contains(raw, []byte(`"_client_id":"AI_`)))
}

func TestGetRecommendationsMapsResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"recommendations": [
				{"book_id": 11, "title": "Dune", "author": "Frank Herbert", "genres": ["Science Fiction"],
				 "average_rating": 4.6, "rating_count": 90, "publication_year": 1965,
				 "relevance_score": 0.9, "recommendation_reason": "Classic"},
				{"title": "No id"},
				{"book_id": 0, "title": "Zero id"},
				{"book_id": 12, "title": ""}
			],
			"is_fallback": true,
			"fallback_reason": "Not enough ratings",
			"recommendation_type": "top_rated"
		}`))
	})

	result, err := client.GetRecommendations(context.Background(), domain.RecommendationRequest{Strategy: domain.StrategyTopRated})
	require.NoError(t, err)
	require.Len(t, result.Items, 4)

	dune := result.Items[0]
	assert.Equal(t, int64(11), dune.ID)
	assert.Equal(t, "Frank Herbert", dune.Author)
	require.NotNil(t, dune.PublicationYear)
	assert.Equal(t, 1965, *dune.PublicationYear)
	assert.Equal(t, "Classic", dune.Reason)
	assert.NoError(t, dune.Validate())

	assert.Error(t, result.Items[1].Validate(), "missing book_id survives mapping and fails validation")
	assert.Error(t, result.Items[2].Validate(), "zero book_id is not a book")
	assert.Error(t, result.Items[3].Validate(), "empty title is not listable")
	assert.True(t, result.UpstreamFallback)
	assert.False(t, result.Fallback)
	assert.Equal(t, "Not enough ratings", result.Reason())
}

func TestGetRecommendationsErrors(t *testing.T) {
	testCases := []struct {
		name   string
		status int
		want   error
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, want: domain.ErrAuthFailed},
		{name: "server error", status: http.StatusInternalServerError, want: domain.ErrUnexpectedStatus},
		{name: "not found", status: http.StatusNotFound, want: domain.ErrUnexpectedStatus},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(`{"detail":"nope"}`))
			})

			_, err := client.GetRecommendations(context.Background(), domain.RecommendationRequest{Strategy: domain.StrategyTopRated})
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestServerOffline(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewClient(url, "t", Options{}, log.NullLogger())
	_, err := client.GetRecommendations(context.Background(), domain.RecommendationRequest{Strategy: domain.StrategyAI})
	assert.True(t, errors.Is(err, domain.ErrServerOffline))
}

func TestUnauthorizedHook(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	var calls atomic.Int32
	client.OnUnauthorized(func() { calls.Add(1) })

	_, err := client.GetRecommendations(context.Background(), domain.RecommendationRequest{Strategy: domain.StrategyTopRated})
	require.ErrorIs(t, err, domain.ErrAuthFailed)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCircuitBreakerOpens(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL, "t", Options{Breaker: BreakerSettings{
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 2,
	}}, log.NullLogger())

	ctx := context.Background()
	req := domain.RecommendationRequest{Strategy: domain.StrategyTopRated}
	for i := 0; i < 2; i++ {
		_, err := client.GetRecommendations(ctx, req)
		require.ErrorIs(t, err, domain.ErrUnexpectedStatus)
	}

	_, err := client.GetRecommendations(ctx, req)
	assert.ErrorIs(t, err, domain.ErrServerOffline)
	assert.Equal(t, int32(2), hits.Load(), "open circuit short-circuits the request")
}

func TestUnauthorizedDoesNotTripBreaker(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	for i := 0; i < 10; i++ {
		_, err := client.GetRecommendations(context.Background(), domain.RecommendationRequest{Strategy: domain.StrategyTopRated})
		require.ErrorIs(t, err, domain.ErrAuthFailed)
	}
}

func TestRateLimiterHonorsContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"recommendations":[]}`))
	})
	client.limiter = newLimiter("test", 1)

	ctx := context.Background()
	_, err := client.GetRecommendations(ctx, domain.RecommendationRequest{Strategy: domain.StrategyTopRated})
	require.NoError(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = client.GetRecommendations(cancelled, domain.RecommendationRequest{Strategy: domain.StrategyTopRated})
	assert.Error(t, err)
}

func TestUnknownStrategyIsRejectedLocally(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	_, err := client.GetRecommendations(context.Background(), domain.RecommendationRequest{Strategy: domain.Strategy(5)})
	assert.ErrorIs(t, err, domain.ErrUnknownStrategy)
}

func TestLoginAndCurrentUser(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/auth/login":
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
			if r.PostForm.Get("username") != "reader@example.com" || r.PostForm.Get("password") != "hunter2" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Write([]byte(`{"access_token":"fresh","token_type":"bearer"}`))
		case "/v1/auth/me":
			if r.Header.Get("Authorization") != "Bearer fresh" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Write([]byte(`{"id":3,"name":"Ada","email":"reader@example.com"}`))
		case "/v1/auth/logout":
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	_, err := client.Login(ctx, "reader@example.com", "wrong")
	assert.ErrorIs(t, err, domain.ErrAuthFailed)

	result, err := client.Login(ctx, "reader@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "fresh", result.Token)
	assert.Equal(t, "Ada", result.Name)

	user, err := client.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), user.ID)

	require.NoError(t, client.Logout(ctx))
	_, err = client.CurrentUser(ctx)
	assert.ErrorIs(t, err, domain.ErrAuthFailed, "token is forgotten after logout")
}

func TestAuthFlowRun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/auth/login":
			w.Write([]byte(`{"access_token":"tok"}`))
		case "/v1/auth/me":
			w.Write([]byte(`{"id":1,"name":"Ada","email":"a@b.c"}`))
		}
	}))
	t.Cleanup(srv.Close)

	var out bytes.Buffer
	flow := NewAuthFlow(Options{}, log.NullLogger())
	flow.in = strings.NewReader("a@b.c\n")
	flow.out = &out
	flow.readPassword = func() ([]byte, error) { return []byte("pw"), nil }

	result, err := flow.Run(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "tok", result.Token)
	assert.Equal(t, "a@b.c", result.Email)
	assert.Contains(t, out.String(), "Signed in as Ada.")
}
