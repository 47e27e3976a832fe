// Package auth implements Qianfan credential handling: exchanging an
// AK/SK pair for a bearer access token (with a per-credential cache and
// a minimum refresh interval), and bce-auth-v1 HMAC signing for console
// API requests.
package auth
