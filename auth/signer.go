package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

// bce-auth-v1 签名实现。控制台 API 不走 access token，而是对每个请求做
// HMAC-SHA256 签名：
//
//	authStringPrefix = bce-auth-v1/{ak}/{UTC 时间戳}/{有效期秒}
//	signingKey       = hex(HMAC-SHA256(sk, authStringPrefix))
//	canonicalRequest = METHOD \n URI \n QueryString \n CanonicalHeaders
//	signature        = hex(HMAC-SHA256(signingKey, canonicalRequest))
//	Authorization    = authStringPrefix/{signedHeaders}/{signature}

const (
	// DefaultSignExpire 为签名有效期。
	DefaultSignExpire = 30 * time.Minute

	bceDateHeader = "x-bce-date"
	bceTimeLayout = "2006-01-02T15:04:05Z"
)

// Credential 为一对 AK/SK。
type Credential struct {
	AccessKey string
	SecretKey string
}

// Valid reports whether both halves of the pair are present.
func (c Credential) Valid() bool {
	return c.AccessKey != "" && c.SecretKey != ""
}

// CacheKey returns a stable identifier for the pair without exposing the SK.
func (c Credential) CacheKey() string {
	sum := sha256.Sum256([]byte(c.AccessKey + "/" + c.SecretKey))
	return hex.EncodeToString(sum[:8])
}

// Sign adds the bce-auth-v1 Authorization and x-bce-date headers to req.
func Sign(req *http.Request, cred Credential, expire time.Duration, now time.Time) {
	if expire <= 0 {
		expire = DefaultSignExpire
	}
	timestamp := now.UTC().Format(bceTimeLayout)
	req.Header.Set(bceDateHeader, timestamp)

	prefix := fmt.Sprintf("bce-auth-v1/%s/%s/%d", cred.AccessKey, timestamp, int(expire.Seconds()))
	signingKey := hmacSHA256Hex([]byte(cred.SecretKey), prefix)

	signedHeaders := "host;" + bceDateHeader
	canonical := strings.Join([]string{
		req.Method,
		uriEncodeExceptSlash(req.URL.Path),
		canonicalQueryString(req.URL.Query()),
		canonicalHeaders(req, signedHeaders),
	}, "\n")

	signature := hmacSHA256Hex([]byte(signingKey), canonical)
	req.Header.Set("Authorization", prefix+"/"+signedHeaders+"/"+signature)
}

func hmacSHA256Hex(key []byte, data string) string {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

// uriEncode 按 BCE 规则做百分号编码：除 [A-Za-z0-9-_.~] 外全部编码。
func uriEncode(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') ||
			c == '-' || c == '_' || c == '.' || c == '~' {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

func uriEncodeExceptSlash(s string) string {
	parts := strings.Split(s, "/")
	for i, p := range parts {
		parts[i] = uriEncode(p)
	}
	return strings.Join(parts, "/")
}

func canonicalQueryString(query url.Values) string {
	if len(query) == 0 {
		return ""
	}
	pairs := make([]string, 0, len(query))
	for key, values := range query {
		for _, v := range values {
			pairs = append(pairs, uriEncode(key)+"="+uriEncode(v))
		}
	}
	sort.Strings(pairs)
	return strings.Join(pairs, "&")
}

func canonicalHeaders(req *http.Request, signedHeaders string) string {
	entries := make([]string, 0, 2)
	for _, name := range strings.Split(signedHeaders, ";") {
		var value string
		if name == "host" {
			value = req.Host
			if value == "" {
				value = req.URL.Host
			}
		} else {
			value = req.Header.Get(name)
		}
		entries = append(entries, name+":"+uriEncode(strings.TrimSpace(value)))
	}
	sort.Strings(entries)
	return strings.Join(entries, "\n")
}
