package helix

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Guliveer/twitch-eventsub-go/internal/eventsub"
	"github.com/Guliveer/twitch-eventsub-go/internal/metrics"
)

type staticTokens struct{}

func (staticTokens) AccessToken(context.Context) (string, error) { return "tok", nil }
func (staticTokens) ClientID() string                            { return "client-1" }

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *metrics.Metrics) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	m := metrics.New(prometheus.NewRegistry())
	return NewClient(srv.Client(), staticTokens{}, WithBaseURL(srv.URL+"/"), WithMetrics(m)), m
}

func followRequest(broadcaster string) CreateRequest {
	return CreateRequest{
		Type:      "channel.follow",
		Version:   "2",
		Condition: map[string]string{"broadcaster_user_id": broadcaster, "moderator_user_id": broadcaster},
		Transport: eventsub.Transport{Method: eventsub.TransportWebSocket, SessionID: "s1"},
	}
}

func TestCreateSubscription(t *testing.T) {
	c, m := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/eventsub/subscriptions", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "client-1", r.Header.Get("Client-Id"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "channel.follow", body["type"])
		assert.Equal(t, map[string]any{"method": "websocket", "session_id": "s1"}, body["transport"])

		w.WriteHeader(http.StatusAccepted)
		fmt.Fprint(w, `{"data":[{"id":"sub-1","status":"enabled","type":"channel.follow","version":"2","cost":0,"condition":{"broadcaster_user_id":"1337"},"transport":{"method":"websocket","session_id":"s1"},"created_at":"2024-03-01T12:00:00Z"}],"total":1,"total_cost":0,"max_total_cost":10}`)
	})

	sub, err := c.CreateSubscription(context.Background(), followRequest("1337"))
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, "sub-1", sub.ID)
	assert.Equal(t, eventsub.StatusEnabled, sub.Status)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SubscriptionsCreated.WithLabelValues("websocket", "ok")))
}

type revocableTokens struct {
	staticTokens
	invalidated atomic.Int32
}

func (r *revocableTokens) Invalidate() { r.invalidated.Add(1) }

func TestUnauthorizedInvalidatesToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"Unauthorized","status":401,"message":"Invalid OAuth token"}`)
	}))
	t.Cleanup(srv.Close)
	tokens := &revocableTokens{}
	c := NewClient(srv.Client(), tokens, WithBaseURL(srv.URL))

	_, err := c.CreateSubscription(context.Background(), followRequest("1337"))
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, int32(1), tokens.invalidated.Load())
}

func TestCreateSubscriptionConflictIsSuccess(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprint(w, `{"error":"Conflict","status":409,"message":"subscription already exists"}`)
	})

	sub, err := c.CreateSubscription(context.Background(), followRequest("1337"))
	assert.NoError(t, err)
	assert.Nil(t, sub)
}

func TestCreateSubscriptionErrors(t *testing.T) {
	c, m := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"Unauthorized","status":401,"message":"Invalid OAuth token"}`)
	})

	_, err := c.CreateSubscription(context.Background(), followRequest("1337"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Invalid OAuth token", apiErr.Message)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SubscriptionsCreated.WithLabelValues("websocket", "error")))

	c, _ = newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	_, err = c.CreateSubscription(context.Background(), followRequest("1337"))
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.NotErrorIs(t, err, ErrUnauthorized)
}

func TestDeleteSubscription(t *testing.T) {
	var gotID string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		gotID = r.URL.Query().Get("id")
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.DeleteSubscription(context.Background(), "sub-1"))
	assert.Equal(t, "sub-1", gotID)
	assert.Error(t, c.DeleteSubscription(context.Background(), ""))
}

func TestListSubscriptionsFollowsCursor(t *testing.T) {
	var afters []string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "enabled", r.URL.Query().Get("status"))
		after := r.URL.Query().Get("after")
		afters = append(afters, after)
		switch after {
		case "":
			fmt.Fprint(w, `{"data":[{"id":"a","type":"channel.follow","version":"2"}],"total":2,"total_cost":2,"max_total_cost":10,"pagination":{"cursor":"c1"}}`)
		case "c1":
			fmt.Fprint(w, `{"data":[{"id":"b","type":"stream.online","version":"1"}],"total":2,"total_cost":2,"max_total_cost":10,"pagination":{}}`)
		}
	})

	list, err := c.ListSubscriptions(context.Background(), ListFilter{Status: eventsub.StatusEnabled})
	require.NoError(t, err)
	require.Len(t, list.Subscriptions, 2)
	assert.Equal(t, "a", list.Subscriptions[0].ID)
	assert.Equal(t, "b", list.Subscriptions[1].ID)
	assert.Equal(t, 2, list.Total)
	assert.Equal(t, 10, list.MaxTotalCost)
	assert.Equal(t, []string{"", "c1"}, afters)
}

func TestListSubscriptionsStopsOnRepeatedCursor(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"data":[],"pagination":{"cursor":"same"}}`)
	})

	_, err := c.ListSubscriptions(context.Background(), ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCreateAllReportsEveryFailure(t *testing.T) {
	var mu sync.Mutex
	created := map[string]bool{}
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req CreateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		b := req.Condition["broadcaster_user_id"]
		if b == "bad" {
			http.Error(w, `{"status":400,"message":"invalid condition"}`, http.StatusBadRequest)
			return
		}
		mu.Lock()
		created[b] = true
		mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
		fmt.Fprintf(w, `{"data":[{"id":"sub-%s","type":"channel.follow","version":"2"}]}`, b)
	})

	reqs := []CreateRequest{followRequest("1"), followRequest("bad"), followRequest("2"), followRequest("bad")}
	err := c.CreateAll(context.Background(), reqs, 2)
	require.Error(t, err)

	var apiErr *APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "invalid condition", apiErr.Message)
	assert.Len(t, err.(interface{ Unwrap() []error }).Unwrap(), 2)
	assert.Equal(t, map[string]bool{"1": true, "2": true}, created)
}
