package connection

import "time"

// Dashboard counts go stale fast, so the cache window is short.
const statsTTL = 10 * time.Second

type InDecide struct {
	Decision *string `json:"decision"`
}

type OutStats struct {
	PendingRequests int64 `json:"pending_requests"`
	ConnectedUsers  int64 `json:"connected_users"`
}
