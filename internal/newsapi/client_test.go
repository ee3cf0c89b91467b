package newsapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"
)

type ClientSuite struct {
	suite.Suite

	requests []*http.Request
	handler  http.HandlerFunc
	server   *httptest.Server

	slept  []time.Duration
	client *Client
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.requests = nil
	s.slept = nil

	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests = append(s.requests, r.Clone(r.Context()))
		s.handler(w, r)
	}))

	limiter := NewLimiter(200, 10, zerolog.Nop())
	s.client = NewClient(ClientOptions{
		BaseURL:    s.server.URL,
		APIKey:     "test-key",
		Language:   "en",
		Country:    "in",
		Timeout:    5 * time.Second,
		MaxRetries: 3,
		RetryDelay: time.Minute,
		BackoffCap: 5 * time.Minute,
	}, limiter, zerolog.Nop())
	s.client.sleep = func(_ context.Context, d time.Duration) error {
		s.slept = append(s.slept, d)
		return nil
	}
}

func (s *ClientSuite) TearDownTest() {
	s.server.Close()
}

func respond(w http.ResponseWriter, results []RawArticle) {
	w.Header().Set("X-RateLimit-Remaining", "187")
	_ = json.NewEncoder(w).Encode(Response{
		Status:       "success",
		TotalResults: len(results),
		Results:      results,
	})
}

func (s *ClientSuite) TestFetch_Success() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		respond(w, []RawArticle{{Title: "Storm hits coast", Link: "https://example.com/a"}})
	}

	got, err := s.client.Fetch(context.Background(), "world")

	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal("Storm hits coast", got[0].Title)

	s.Require().Len(s.requests, 1)
	q := s.requests[0].URL.Query()
	s.Equal("test-key", q.Get("apikey"))
	s.Equal("world", q.Get("category"))
	s.Equal("en", q.Get("language"))
	s.Equal("in", q.Get("country"))

	s.Equal(1, s.client.limiter.Snapshot().RequestCount)
}

func (s *ClientSuite) TestFetch_RetriesThrottlingWithIncreasingBackoff() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}

	_, err := s.client.Fetch(context.Background(), "business")

	s.Require().ErrorIs(err, ErrRateLimitExceeded)
	// Initial attempt plus three retries, each preceded by a strictly
	// longer backoff.
	s.Len(s.requests, 4)
	s.Equal([]time.Duration{time.Minute, 2 * time.Minute, 4 * time.Minute}, s.slept)
	// Failed requests never consume budget.
	s.Equal(0, s.client.limiter.Snapshot().RequestCount)
}

func (s *ClientSuite) TestFetch_BackoffIsCapped() {
	s.client.retryDelay = 4 * time.Minute

	s.handler = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}

	_, err := s.client.Fetch(context.Background(), "business")

	s.Require().ErrorIs(err, ErrRateLimitExceeded)
	s.Equal([]time.Duration{4 * time.Minute, 5 * time.Minute, 5 * time.Minute}, s.slept)
}

func (s *ClientSuite) TestFetch_RecoversAfterThrottling() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		if len(s.requests) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		respond(w, []RawArticle{{Title: "Back in business"}})
	}

	got, err := s.client.Fetch(context.Background(), "business")

	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Len(s.requests, 3)
	s.Len(s.slept, 2)
}

func (s *ClientSuite) TestFetch_ForbiddenFailsImmediately() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}

	_, err := s.client.Fetch(context.Background(), "science")

	s.Require().ErrorIs(err, ErrAccessForbidden)
	s.Len(s.requests, 1)
	s.Empty(s.slept)
}

func (s *ClientSuite) TestFetch_ServerErrorIsTransient() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}

	_, err := s.client.Fetch(context.Background(), "science")

	s.Require().ErrorIs(err, ErrTransientFetch)
	s.Len(s.requests, 1)
}

func (s *ClientSuite) TestFetch_MalformedBodyIsTransient() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}

	_, err := s.client.Fetch(context.Background(), "science")

	s.Require().ErrorIs(err, ErrTransientFetch)
}
