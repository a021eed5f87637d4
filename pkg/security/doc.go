// Package security provides validation, sanitization, and limits for
// schedule input and stored run data.
//
// This package includes:
//   - Label and interval validation for drafts entering the registry
//   - Error message sanitization before sync failures are persisted
//   - Clamping for list limits and dispatcher rate settings
//
// Most users should import the root package github.com/jdziat/sync-schedules
// which re-exports these functions.
package security
