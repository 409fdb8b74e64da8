package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUserAgent(t *testing.T) {
	c := ParseUserAgent("Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1")
	assert.Equal(t, "mobile", c.Device)
	assert.False(t, c.Bot)

	bot := ParseUserAgent("Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)")
	assert.True(t, bot.Bot)
	assert.Equal(t, "bot", bot.Device)

	empty := ParseUserAgent("")
	assert.Equal(t, "Unknown", empty.Browser)
	assert.Equal(t, "Unknown", empty.OS)
}

func TestVisitorHash_StablePerDay(t *testing.T) {
	morning := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 3, 1, 22, 0, 0, 0, time.UTC)
	next := morning.Add(24 * time.Hour)

	a := VisitorHash("s", "1.2.3.4", "ua", morning)
	assert.Len(t, a, 64)
	assert.Equal(t, a, VisitorHash("s", "1.2.3.4", "ua", evening))
	assert.NotEqual(t, a, VisitorHash("s", "1.2.3.4", "ua", next))
	assert.NotEqual(t, a, VisitorHash("other", "1.2.3.4", "ua", morning))
}

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "/", NormalizePath(""))
	assert.Equal(t, "/products", NormalizePath("/products/?a=1#x"))
	assert.Equal(t, "/about", NormalizePath("about"))
	assert.Equal(t, "/", NormalizePath("/"))
}

func TestReferrerHost(t *testing.T) {
	assert.Equal(t, "google.com", ReferrerHost("https://www.google.com/search?q=x", "nxl.example"))
	assert.Equal(t, "", ReferrerHost("https://nxl.example/contact", "nxl.example"))
	assert.Equal(t, "", ReferrerHost("not a url", ""))
}

func TestParseRange(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	w, err := ParseRange("", now)
	require.NoError(t, err)
	assert.Equal(t, 30, w.Days)

	w, err = ParseRange("7d", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), w.Since)
	keys := w.DayKeys()
	require.Len(t, keys, 7)
	assert.Equal(t, "2026-03-04", keys[0])
	assert.Equal(t, "2026-03-10", keys[6])

	_, err = ParseRange("14d", now)
	assert.ErrorIs(t, err, ErrUnknownRange)
}

func TestGeoIP_WithoutDatabase(t *testing.T) {
	g, err := OpenGeoIP("")
	require.NoError(t, err)
	assert.False(t, g.Enabled())
	assert.Equal(t, "LOCAL", g.Country("192.168.1.4"))
	assert.Equal(t, "", g.Country("8.8.8.8"))
	assert.Equal(t, "", g.Country("nope"))
	assert.NoError(t, g.Close())
}
