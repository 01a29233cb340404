package utils

import (
	"net/url"
	"strings"
)

// splitQuery cuts the raw query at unescaped '&' separators. A '&' preceded
// by a backslash belongs to the value.
func splitQuery(query string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '&' && (i == 0 || query[i-1] != '\\') {
			parts = append(parts, query[start:i])
			start = i + 1
		}
	}
	return append(parts, query[start:])
}

// ParseQuery decodes a raw query like url.ParseQuery but folds keys to
// lower case, so Identifier= and identifier= are the same parameter. The
// first decoding error is returned along with the parameters that did
// decode.
func ParseQuery(query string) (m url.Values, err error) {
	m = make(url.Values)
	for _, key := range splitQuery(query) {
		if key == "" {
			continue
		}
		value := ""
		if i := strings.Index(key, "="); i >= 0 {
			key, value = key[:i], key[i+1:]
			value = strings.Replace(value, "\\&", "&", -1)
		}

		key, err1 := url.QueryUnescape(key)
		if err1 == nil {
			value, err1 = url.QueryUnescape(value)
		}
		if err1 != nil {
			if err == nil {
				err = err1
			}
			continue
		}

		key = strings.ToLower(key)
		m[key] = append(m[key], value)
	}
	return m, err
}
