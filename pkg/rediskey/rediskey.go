package rediskey

import "fmt"

// Billing keys (global convention across services)
const (
	SequencePrefix = "seq"
)

func NamespaceKey(namespace, key string) string {
	return fmt.Sprintf("%s:%s", namespace, key)
}

// BuildSequenceKey returns "seq:{prefix}:{date}"
func BuildSequenceKey(prefix, date string) string {
	return NamespaceKey(SequencePrefix, NamespaceKey(prefix, date))
}
