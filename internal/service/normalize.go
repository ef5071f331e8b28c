package service

import "strings"

// NormalizeCanonicalName maps a food name onto the registry's unique key:
// trimmed, lower-cased, internal whitespace collapsed to single spaces.
// Idempotent, so stored keys and lookup keys always agree.
func NormalizeCanonicalName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
