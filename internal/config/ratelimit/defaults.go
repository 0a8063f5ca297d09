package ratelimit

import "time"

const (
	defaultEnabled = true
	defaultLimit   = 60
	defaultWindow  = time.Minute
)
