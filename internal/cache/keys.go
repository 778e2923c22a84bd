package cache

import "strings"

const keyPrefix = "backoffice"

func key(parts ...string) string {
	return keyPrefix + ":" + strings.Join(parts, ":")
}

// RecordKey addresses a cached gateway record.
func RecordKey(kind, id string) string {
	return key("record", kind, id)
}

// SessionKey addresses a stored pricing session.
func SessionKey(id string) string {
	return key("session", id)
}

// SessionLockKey addresses the mutation lock of a pricing session.
func SessionLockKey(id string) string {
	return key("lock", "session", id)
}

// RateLimitPrefix is the key prefix used by the API rate limiter store.
func RateLimitPrefix() string {
	return key("ratelimit")
}

// AuditKey addresses the audit trail of a pricing session.
func AuditKey(sessionID string) string {
	return key("audit", "session", sessionID)
}
