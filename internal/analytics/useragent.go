package analytics

import (
	"github.com/mileusna/useragent"
)

// Client is what we keep from a user agent string.
type Client struct {
	Browser string
	OS      string
	Device  string
	Bot     bool
}

// ParseUserAgent extracts browser, OS, and device type from a user agent string.
func ParseUserAgent(uaString string) Client {
	ua := useragent.Parse(uaString)

	result := Client{
		Browser: ua.Name,
		OS:      ua.OS,
		Bot:     ua.Bot,
	}
	if result.Browser == "" {
		result.Browser = "Unknown"
	}
	if result.OS == "" {
		result.OS = "Unknown"
	}

	switch {
	case ua.Bot:
		result.Device = "bot"
	case ua.Tablet:
		result.Device = "tablet"
	case ua.Mobile:
		result.Device = "mobile"
	default:
		result.Device = "desktop"
	}
	return result
}
