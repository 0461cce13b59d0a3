package main

import (
	"os"
	"strconv"
	"time"

	"grokflag"
)

// Build-time variables - inject via ldflags
// Example: go build -ldflags "-X main.cfClearance=TOKEN -X main.impersonate=chrome143"
var (
	cfClearance string // -X main.cfClearance=...
	impersonate string // -X main.impersonate=...
	userAgent   string // -X main.userAgent=...
)

// GetClearanceToken returns the default cf_clearance cookie (build-time or env fallback).
func GetClearanceToken() string {
	if cfClearance != "" {
		return cfClearance
	}
	return os.Getenv("CF_CLEARANCE")
}

// GetImpersonate returns the TLS profile name, defaulting to grokflag.DefaultImpersonate.
func GetImpersonate() string {
	if impersonate != "" {
		return impersonate
	}
	if v := os.Getenv("IMPERSONATE"); v != "" {
		return v
	}
	return grokflag.DefaultImpersonate
}

// GetUserAgent returns the user agent override. Empty means the library default.
func GetUserAgent() string {
	if userAgent != "" {
		return userAgent
	}
	return os.Getenv("USER_AGENT")
}

// GetRequestTimeout reads REQUEST_TIMEOUT in whole seconds.
func GetRequestTimeout() time.Duration {
	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return grokflag.DefaultTimeout
}

// TLSDebugEnabled reports whether tls-client should log through the engine log.
func TLSDebugEnabled() bool {
	v, _ := strconv.ParseBool(os.Getenv("TLS_DEBUG"))
	return v
}
