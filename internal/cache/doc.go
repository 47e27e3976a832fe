// Package cache provides the token-cache backends used by the auth
// manager: an in-process memory store (default) and an optional Redis
// store for deployments that share access tokens across processes.
// This package is internal and should not be imported by external projects.
package cache
