// Package ratelimit defines the fixed-window admission-control contract shared
// by the gateway and its in-memory implementation.
package ratelimit

import "time"

const (
	// ClassAction covers play/pause/seek/host-transfer/video-change events.
	ClassAction = "action"
	// ClassChat covers chat messages.
	ClassChat = "chat"
)

// Limit caps requests per identity within a fixed window.
type Limit struct {
	Max    int
	Window time.Duration
}
