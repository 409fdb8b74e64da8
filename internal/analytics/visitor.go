package analytics

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"time"
)

// VisitorHash identifies a visitor for one UTC day without storing the IP.
func VisitorHash(salt, ip, userAgent string, at time.Time) string {
	sum := sha256.Sum256([]byte(salt + "|" + ip + "|" + userAgent + "|" + at.UTC().Format("2006-01-02")))
	return hex.EncodeToString(sum[:])
}

// NormalizePath keeps the path of a tracked page and drops query and fragment.
func NormalizePath(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "/"
	}
	if u, err := url.Parse(raw); err == nil {
		raw = u.Path
	}
	if !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	if len(raw) > 1 {
		raw = strings.TrimRight(raw, "/")
	}
	if len(raw) > 256 {
		raw = raw[:256]
	}
	return raw
}

// ReferrerHost reduces a referrer URL to its host. Self-referrals become "".
func ReferrerHost(raw, siteHost string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if siteHost != "" && host == strings.TrimPrefix(strings.ToLower(siteHost), "www.") {
		return ""
	}
	return host
}
