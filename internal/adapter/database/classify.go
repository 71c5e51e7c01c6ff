package database

import (
	"fmt"
	"strings"
)

// Driver and resolver texts that point at name resolution rather than at the
// server itself. Matching is case-insensitive.
var dnsIndicators = []string{
	"resolution lifetime expired",
	"dns operation timed out",
	"no route to host",
	"name resolution failed",
	"getaddrinfo failed",
	"no such host",
	"server misbehaving",
	"error parsing uri: lookup",
	"srv lookup",
}

var dnsSuggestions = []string{
	"Check your network connection",
	"Verify DNS servers are accessible",
	"Try using a different DNS server (e.g., 8.8.8.8 or 1.1.1.1)",
	"Check if the MongoDB hostname is correct in your configuration",
	"Verify firewall/network settings allow DNS queries",
}

func isDNSError(msg string) bool {
	lower := strings.ToLower(msg)
	for _, indicator := range dnsIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}

func formatConnectionError(err error, attempt, maxAttempts int) string {
	msg := err.Error()
	if isDNSError(msg) {
		return fmt.Sprintf("DNS resolution failed when connecting to MongoDB (attempt %d/%d): %s. Suggestions: %s",
			attempt, maxAttempts, msg, strings.Join(dnsSuggestions, "; "))
	}
	return fmt.Sprintf("Failed to connect to MongoDB (attempt %d/%d): %s", attempt, maxAttempts, msg)
}

func hintFor(err error) string {
	if err != nil && isDNSError(err.Error()) {
		return strings.Join(dnsSuggestions, "; ")
	}
	return "Check the MongoDB host, credentials and network access list"
}
