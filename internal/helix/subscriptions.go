package helix

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Guliveer/twitch-eventsub-go/internal/eventsub"
	"github.com/Guliveer/twitch-eventsub-go/internal/workerpool"
)

const subscriptionsPath = "/eventsub/subscriptions"

// CreateRequest is the body of a subscription create call.
type CreateRequest struct {
	Type      string             `json:"type"`
	Version   string             `json:"version"`
	Condition map[string]string  `json:"condition"`
	Transport eventsub.Transport `json:"transport"`
}

func (r CreateRequest) key() string {
	return r.Type + "@" + r.Version
}

// SubscriptionList is one or more pages of subscriptions plus the cost
// totals of the first page.
type SubscriptionList struct {
	Subscriptions []eventsub.Subscription
	Total         int
	TotalCost     int
	MaxTotalCost  int
}

type subscriptionsResponse struct {
	Data         []eventsub.Subscription `json:"data"`
	Total        int                     `json:"total"`
	TotalCost    int                     `json:"total_cost"`
	MaxTotalCost int                     `json:"max_total_cost"`
	Pagination   struct {
		Cursor string `json:"cursor"`
	} `json:"pagination"`
}

// CreateSubscription creates one subscription. A 409 means an identical
// subscription already exists; it counts as success and returns a nil
// subscription.
func (c *Client) CreateSubscription(ctx context.Context, req CreateRequest) (*eventsub.Subscription, error) {
	var out subscriptionsResponse
	status, err := c.do(ctx, http.MethodPost, subscriptionsPath, req, &out)
	if status == http.StatusConflict {
		c.log.Debug("Subscription already exists", "event_type", req.Type, "version", req.Version)
		c.metrics.SubscriptionCreated(req.Transport.Method, nil)
		return nil, nil
	}
	c.metrics.SubscriptionCreated(req.Transport.Method, err)
	if err != nil {
		return nil, fmt.Errorf("creating %s subscription: %w", req.key(), err)
	}
	if len(out.Data) == 0 {
		return nil, fmt.Errorf("creating %s subscription: empty response", req.key())
	}

	sub := out.Data[0]
	c.log.Info("Created subscription",
		"event_type", sub.Type, "subscription_id", sub.ID, "status", sub.Status, "cost", sub.Cost)
	return &sub, nil
}

// DeleteSubscription deletes the subscription with the given id.
func (c *Client) DeleteSubscription(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("helix: empty subscription id")
	}
	if _, err := c.do(ctx, http.MethodDelete, subscriptionsPath+"?"+url.Values{"id": {id}}.Encode(), nil, nil); err != nil {
		return fmt.Errorf("deleting subscription %s: %w", id, err)
	}
	c.log.Info("Deleted subscription", "subscription_id", id)
	return nil
}

// ListFilter narrows ListSubscriptions. Helix accepts at most one field.
type ListFilter struct {
	Status         eventsub.Status
	Type           string
	UserID         string
	SubscriptionID string
}

func (f ListFilter) values() url.Values {
	v := url.Values{}
	if f.Status != "" {
		v.Set("status", string(f.Status))
	}
	if f.Type != "" {
		v.Set("type", f.Type)
	}
	if f.UserID != "" {
		v.Set("user_id", f.UserID)
	}
	if f.SubscriptionID != "" {
		v.Set("subscription_id", f.SubscriptionID)
	}
	return v
}

// ListSubscriptions follows the pagination cursor and returns every
// matching subscription.
func (c *Client) ListSubscriptions(ctx context.Context, filter ListFilter) (*SubscriptionList, error) {
	list := &SubscriptionList{}
	query := filter.values()
	seen := map[string]bool{}

	for page := 0; ; page++ {
		path := subscriptionsPath
		if len(query) > 0 {
			path += "?" + query.Encode()
		}

		var out subscriptionsResponse
		if _, err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
			return nil, fmt.Errorf("listing subscriptions: %w", err)
		}
		if page == 0 {
			list.Total, list.TotalCost, list.MaxTotalCost = out.Total, out.TotalCost, out.MaxTotalCost
		}
		list.Subscriptions = append(list.Subscriptions, out.Data...)

		cursor := out.Pagination.Cursor
		if cursor == "" || seen[cursor] {
			return list, nil
		}
		seen[cursor] = true
		query.Set("after", cursor)
	}
}

// CreateAll creates reqs with at most workers concurrent calls. Every
// failure is reported; one failure does not cancel the rest.
func (c *Client) CreateAll(ctx context.Context, reqs []CreateRequest, workers int) error {
	return workerpool.Run(ctx, reqs, workers, func(ctx context.Context, req CreateRequest) error {
		_, err := c.CreateSubscription(ctx, req)
		return err
	})
}
