package client

import "time"

// Health is a point-in-time snapshot of the session, safe to collect
// from any goroutine.
type Health struct {
	Status         ConnectionStatus `json:"status"`
	Connected      bool             `json:"connected"`
	URL            string           `json:"url"`
	RetryCount     int              `json:"retry_count"`
	QueuedMessages int              `json:"queued_messages"`
	LastHeartbeat  time.Time        `json:"last_heartbeat"`
}

// Health returns the current session snapshot.
func (c *Client) Health() Health {
	c.mu.Lock()
	url := c.url
	c.mu.Unlock()

	status := c.Status()
	return Health{
		Status:         status,
		Connected:      status == StatusConnected,
		URL:            url,
		RetryCount:     c.RetryCount(),
		QueuedMessages: c.queue.Size(),
		LastHeartbeat:  c.LastHeartbeat(),
	}
}
