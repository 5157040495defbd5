package main

import (
	"time"
)

var startTime = time.Now()

// Uptime reports how long the server has been running
func Uptime() time.Duration {
	return time.Since(startTime).Round(time.Second)
}
