package capmonster

// userAgent identifies this client to the service.
const userAgent = "go-capmonster/1.0"

// apiHeaders returns the headers sent with every API request.
func apiHeaders() map[string]string {
	return map[string]string{
		"content-type": "application/json",
		"accept":       "application/json",
		"user-agent":   userAgent,
	}
}

// apiHeaderOrder is the header order used by the stealth transport.
var apiHeaderOrder = []string{
	"content-type",
	"accept",
	"user-agent",
	"content-length",
}
