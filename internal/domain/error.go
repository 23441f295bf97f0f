package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound            = errors.New("entity not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrTotalLimitReached   = errors.New("message limit reached")
	ErrPremiumLimitReached = errors.New("premium message limit reached")
	ErrQuotaExceeded       = errors.New("usage quota exceeded")
	ErrUpstream            = errors.New("model provider failure")
	ErrModelPricingMissing = errors.New("model pricing missing")
)
