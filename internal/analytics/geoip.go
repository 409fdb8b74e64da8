package analytics

import (
	"fmt"
	"net"
	"sync"

	"github.com/oschwald/maxminddb-golang"
)

// GeoIP resolves IP addresses to ISO country codes using a MaxMind
// GeoLite2-Country database. A zero GeoIP (no database) resolves nothing.
type GeoIP struct {
	mu sync.RWMutex
	db *maxminddb.Reader
}

type geoRecord struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
}

// OpenGeoIP loads the database at path. An empty path disables lookups.
func OpenGeoIP(path string) (*GeoIP, error) {
	g := &GeoIP{}
	if path == "" {
		return g, nil
	}
	db, err := maxminddb.Open(path)
	if err != nil {
		return g, fmt.Errorf("failed to open GeoIP database: %w", err)
	}
	g.db = db
	return g, nil
}

// Country returns the 2-letter ISO code, "LOCAL" for private addresses,
// or "" when unknown.
func (g *GeoIP) Country(ip string) string {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ""
	}
	if parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsLinkLocalUnicast() {
		return "LOCAL"
	}
	if g == nil {
		return ""
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.db == nil {
		return ""
	}
	var record geoRecord
	if err := g.db.Lookup(parsed, &record); err != nil {
		return ""
	}
	return record.Country.ISOCode
}

// Enabled reports whether a database is loaded.
func (g *GeoIP) Enabled() bool {
	if g == nil {
		return false
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.db != nil
}

// Close releases the database.
func (g *GeoIP) Close() error {
	if g == nil {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.db == nil {
		return nil
	}
	err := g.db.Close()
	g.db = nil
	return err
}
