// Package id generates prefixed unique identifiers for local entities and requests.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Common ID prefixes.
const (
	PrefixPerformer = "perf"
	PrefixStudio    = "stu"
	PrefixTag       = "tag"
	PrefixScene     = "scn"
	PrefixRequest   = "req"
)

// Generate creates a prefixed unique ID using NanoID.
// Format: prefix-nanoid (e.g., "scn-V1StGXR8_Z5jdHi6B-myT").
//
// NanoIDs are URL-friendly and compact (21 characters vs UUID's 36).
// Returns an error if the system has insufficient entropy.
func Generate(prefix string) (string, error) {
	nid, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + nid, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
// Use only where failure should crash the program (e.g., initialization).
func MustGenerate(prefix string) string {
	nid, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return nid
}
