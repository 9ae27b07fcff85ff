// Package ratelimit is per client IP rate limiting for the site listener.
//
// It is a single-instance, in-memory limiter for basic abuse prevention. It
// does not help against distributed floods or bandwidth attacks; those belong
// to an upstream WAF or CDN.
package ratelimit
