// Package opsapi serves the operator HTTP API over Gin: job inspection by
// meeting or status, accelerator lock status, and the two explicit operator
// actions (requeue a failed job, abandon a stuck one). Pipeline progression
// never depends on this API; it is a window and a lever, not a driver.
package opsapi
