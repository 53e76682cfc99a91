package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/netmirror/server/pkg/wsconn"
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const errCodeRoomNotFound = "ROOM_NOT_FOUND"

func (c *controller) writeToConn(ctx context.Context, conn *wsconn.Conn, output *Output) error {
	data, err := json.Marshal(output)
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}

	if err := conn.Send(data); err != nil {
		if errors.Is(err, wsconn.ErrSlowConsumer) {
			c.logger.WarnContext(ctx, "slow consumer disconnected", "message_type", output.Type)
		}
		return fmt.Errorf("failed to send: %w", err)
	}
	metricEventsSent.WithLabelValues(output.Type).Inc()

	return nil
}

// broadcast delivers the event to every connection, continuing past per-conn
// failures so one dead member never stalls the rest of the room.
func (c *controller) broadcast(ctx context.Context, conns []*wsconn.Conn, output *Output) error {
	data, err := json.Marshal(output)
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}

	for _, conn := range conns {
		if err := conn.Send(data); err != nil {
			c.logger.DebugContext(ctx, "failed to send", "message_type", output.Type, "error", err)
			continue
		}
		metricEventsSent.WithLabelValues(output.Type).Inc()
	}

	return nil
}

func (c *controller) broadcastVolatile(ctx context.Context, conns []*wsconn.Conn, output *Output) error {
	data, err := json.Marshal(output)
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}

	for _, conn := range conns {
		conn.SendVolatile(data)
	}

	return nil
}

func (c *controller) writeError(ctx context.Context, conn *wsconn.Conn, code, message string) error {
	return c.writeToConn(ctx, conn, &Output{
		Type:    "error",
		Payload: ErrorPayload{Code: code, Message: message},
	})
}
