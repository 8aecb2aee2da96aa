// Package httpx holds the shared HTTP client for external calls.
package httpx

import (
	"net/http"
	"time"
)

const externalHTTPTimeout = 30 * time.Second

// Client is used for all tracker API calls so every external request
// shares one timeout policy.
var Client = &http.Client{
	Timeout: externalHTTPTimeout,
}
