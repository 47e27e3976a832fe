// Package qianfan provides a top-level convenience entry point for the
// Qianfan platform SDK.
//
// Usage:
//
//	import "github.com/baidubce/bce-qianfan-sdk-go"
//
//	c, err := qianfan.New()                        // config from env
//	c, err := qianfan.NewWithConfigFile("q.yaml")  // defaults → file → env
//
// This is a thin wrapper around [client.New] with the standard config
// loading chain; import the subpackages directly for fine control.
package qianfan

import (
	"github.com/baidubce/bce-qianfan-sdk-go/client"
	"github.com/baidubce/bce-qianfan-sdk-go/config"
)

// Version is the SDK version.
const Version = "0.1.0"

// Option configures the client created by [New].
type Option = client.Option

// WithLogger sets a custom zap logger.
var WithLogger = client.WithLogger

// WithHTTPClient overrides the HTTP client.
var WithHTTPClient = client.WithHTTPClient

// New creates a client from defaults plus QIANFAN_* environment
// variables (QIANFAN_ACCESS_KEY, QIANFAN_SECRET_KEY, ...).
func New(opts ...Option) (*client.Client, error) {
	cfg, err := config.Load("")
	if err != nil {
		return nil, err
	}
	return client.New(cfg, opts...)
}

// NewWithConfig creates a client from an explicit configuration.
func NewWithConfig(cfg *config.Config, opts ...Option) (*client.Client, error) {
	return client.New(cfg, opts...)
}

// NewWithConfigFile creates a client from defaults, the YAML file at
// path, then environment overrides.
func NewWithConfigFile(path string, opts ...Option) (*client.Client, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return client.New(cfg, opts...)
}
