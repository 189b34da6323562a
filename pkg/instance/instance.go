package instance

import "os"

// GetID returns the process instance identifier. WORKER_ID wins over the
// container hostname; "local" is the fallback.
func GetID() string {
	if id := os.Getenv("WORKER_ID"); id != "" {
		return id
	}
	if host := os.Getenv("HOSTNAME"); host != "" {
		return host
	}
	return "local"
}
