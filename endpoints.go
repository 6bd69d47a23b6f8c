package capmonster

import (
	"fmt"
	"strings"
)

// DefaultServiceURL is the public CapMonster Cloud API.
const DefaultServiceURL = "https://api.capmonster.cloud"

// RequestType names an API method. Its string form is the request path segment.
type RequestType string

const (
	RequestCreateTask    RequestType = "createTask"
	RequestGetTaskResult RequestType = "getTaskResult"
	RequestGetBalance    RequestType = "getBalance"
)

// RequestTypes lists every API method in a stable order.
var RequestTypes = []RequestType{RequestCreateTask, RequestGetTaskResult, RequestGetBalance}

// Path returns the URL path for this method.
func (r RequestType) Path() string { return "/" + string(r) }

// URL returns the full URL for this method against base.
func (r RequestType) URL(base string) string {
	return strings.TrimRight(base, "/") + r.Path()
}

// ParseRequestType maps a URL path (case-insensitive, leading slash optional) to a RequestType.
func ParseRequestType(path string) (RequestType, error) {
	p := strings.Trim(path, "/")
	for _, rt := range RequestTypes {
		if strings.EqualFold(p, string(rt)) {
			return rt, nil
		}
	}
	return "", fmt.Errorf("unknown request path: %s", path)
}
