package net

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httputil"
)

// dumpResponse logs the response status and headers at debug level.
func dumpResponse(ctx context.Context, resp *http.Response) {
	if resp == nil || !slog.Default().Enabled(ctx, slog.LevelDebug) {
		return
	}
	d, err := httputil.DumpResponse(resp, false)
	if err != nil {
		return
	}
	if resp.Request != nil {
		slog.Debug("http response", "url", RedactURL(resp.Request.URL), "dump", string(d))
		return
	}
	slog.Debug("http response", "dump", string(d))
}
