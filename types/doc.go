// Package types defines the wire types shared across the SDK: chat,
// completion and embedding request/response bodies, the console API
// envelope, and the unified API error model.
//
// All structs mirror the Qianfan REST API JSON shapes. The SDK never
// invents fields; anything vendor-specific keeps the vendor's name.
package types
