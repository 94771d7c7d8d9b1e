package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	notifapp "github.com/Apurer/go-escrow-marketplace/internal/notifications/application"
	notifports "github.com/Apurer/go-escrow-marketplace/internal/notifications/ports"
)

const (
	defaultPollWait = 25 * time.Second
	maxPollWait     = 60 * time.Second
)

// FeedAPI long-polls order events for clients that cannot hold a socket.
type FeedAPI struct {
	subscriber notifports.Subscriber
}

// NewFeedAPI creates a FeedAPI backed by the provided subscriber.
func NewFeedAPI(subscriber notifports.Subscriber) FeedAPI {
	return FeedAPI{subscriber: subscriber}
}

// Get /v1/orders/:orderId/events
// Wait up to ?wait= seconds for events on the order, then return whatever
// arrived. No events within the window yields 204.
func (api *FeedAPI) PollOrderEvents(c *gin.Context) {
	if api.subscriber == nil {
		c.Status(http.StatusNoContent)
		return
	}
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	wait := defaultPollWait
	if v := c.Query("wait"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil && seconds > 0 {
			wait = time.Duration(seconds) * time.Second
			if wait > maxPollWait {
				wait = maxPollWait
			}
		}
	}

	events, cancel, err := api.subscriber.Subscribe(c.Request.Context(), notifapp.OrderGroup(id))
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	defer cancel()

	timer := time.NewTimer(wait)
	defer timer.Stop()

	var collected []json.RawMessage
	select {
	case <-c.Request.Context().Done():
		return
	case <-timer.C:
		c.Status(http.StatusNoContent)
		return
	case payload, ok := <-events:
		if !ok {
			c.Status(http.StatusNoContent)
			return
		}
		collected = append(collected, json.RawMessage(payload))
	}
	// Drain anything else already buffered without waiting again.
	for {
		select {
		case payload, ok := <-events:
			if !ok {
				c.JSON(http.StatusOK, collected)
				return
			}
			collected = append(collected, json.RawMessage(payload))
		default:
			c.JSON(http.StatusOK, collected)
			return
		}
	}
}
