package net

import (
	"errors"
	"net/url"
	"strings"
)

const redactedValue = "xxxxx"

// sensitiveParams are query keys whose values never leave the client.
var sensitiveParams = map[string]bool{
	"apikey":       true,
	"api_key":      true,
	"key":          true,
	"token":        true,
	"access_token": true,
}

// RedactURL returns u as a string with the user-info password and the values
// of sensitive query parameters masked.
func RedactURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	c := *u
	q := c.Query()
	masked := false
	for k := range q {
		if sensitiveParams[strings.ToLower(k)] {
			q.Set(k, redactedValue)
			masked = true
		}
	}
	if masked {
		c.RawQuery = q.Encode()
	}
	return c.Redacted()
}

// redactError masks the URL carried by a transport error.
func redactError(err error, u *url.URL) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return &url.Error{Op: ue.Op, URL: RedactURL(u), Err: ue.Err}
	}
	return err
}
