package abra

import (
	"net/url"
	"strings"
)

// BuildURL joins base, collection and the optional resource id and
// subcollection into a request target, appending an encoded query string when
// params is non-empty. Path segments are percent-encoded; query keys are
// encoded in sorted order so identical inputs always yield identical URLs.
// No validation is performed on segment names.
func BuildURL(base, collection, resourceID, subcollection string, params map[string]string) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimRight(base, "/"))
	for _, seg := range []string{collection, resourceID, subcollection} {
		if seg == "" {
			continue
		}
		sb.WriteByte('/')
		sb.WriteString(url.PathEscape(seg))
	}
	if len(params) > 0 {
		values := url.Values{}
		for k, v := range params {
			values.Set(k, v)
		}
		sb.WriteByte('?')
		sb.WriteString(values.Encode())
	}
	return sb.String()
}
