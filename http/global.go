package http

import "sync"

var (
	sharedOnce   sync.Once
	sharedClient *Client
)

// GetGlobalClient returns the process-wide client. Every source shares
// it so connection pools and the per-host breakers see all traffic.
func GetGlobalClient() *Client {
	sharedOnce.Do(func() {
		sharedClient = NewClient(nil)
	})
	return sharedClient
}
