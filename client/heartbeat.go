package client

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/c360/streamlink/errors"
)

// heartbeatLoop probes the peer every heartbeatInterval and demands a
// reply within heartbeatTimeout. Any parsed inbound envelope counts as
// a reply; the reader signals arrivals on pongCh. A missed reply
// declares the connection dead with status timeout, which feeds the
// reconnection path like any other loss.
//
// The loop exits when ctx is cancelled (connection teardown or manual
// Disconnect), so no probe or timeout fires after the connection
// leaves connected.
func (c *Client) heartbeatLoop(ctx context.Context, ws *websocket.Conn, gen uint64, pongCh chan time.Time) {
	ticker := time.NewTicker(c.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		// Discard a reply that arrived between probes so it cannot
		// satisfy the probe we are about to send.
		select {
		case <-pongCh:
		default:
		}

		sentAt := time.Now()
		if err := c.writeEnvelope(ws, c.heartbeatMessage); err != nil {
			c.handleConnectionLoss(gen, StatusError, err)
			return
		}

		timer := time.NewTimer(c.heartbeatTimeout)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case at := <-pongCh:
			timer.Stop()
			rtt := at.Sub(sentAt)
			if m := c.coreMetrics(); m != nil {
				m.HeartbeatRTT.Set(rtt.Seconds())
			}
			c.logger.Debugf("Heartbeat reply in %v", rtt)
		case <-timer.C:
			// A missed heartbeat is a dead transport, not a handshake
			// timeout; subscribers see it as transport_error.
			c.handleConnectionLoss(gen, StatusTimeout, errors.WithKind(
				fmt.Errorf("no reply within %v: %w", c.heartbeatTimeout, errors.ErrHeartbeatTimeout),
				errors.KindTransportError, "Client", "heartbeat"))
			return
		}
	}
}
