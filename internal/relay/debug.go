package relay

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"lumino/pkg/logger"
)

const maxLoggedBody = 2048

var sensitiveHeaders = []string{
	"authorization",
	"x-api-key",
	"x-goog-api-key",
	"x-auth-token",
	"cookie",
}

var _ http.RoundTripper = (*DebugTransport)(nil)

// DebugTransport 在 debug 级别记录上游请求，凭据会被脱敏
type DebugTransport struct {
	base http.RoundTripper
}

func NewDebugTransport(base http.RoundTripper) *DebugTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &DebugTransport{base: base}
}

func (t *DebugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	fields := logger.Fields{
		"method":  req.Method,
		"url":     redactURL(req),
		"headers": redactHeaders(req.Header),
	}

	if req.Body != nil && req.GetBody != nil {
		if body, err := req.GetBody(); err == nil {
			data, _ := io.ReadAll(io.LimitReader(body, maxLoggedBody))
			body.Close()
			fields["body"] = string(bytes.TrimSpace(data))
		}
	}
	logger.WithFields(fields).Debug("upstream request")

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		logger.WithFields(logger.Fields{"url": redactURL(req), "error": err}).Debug("upstream request failed")
		return nil, err
	}
	logger.WithFields(logger.Fields{"url": redactURL(req), "status": resp.StatusCode}).Debug("upstream response")
	return resp, nil
}

func redactURL(req *http.Request) string {
	u := *req.URL
	q := u.Query()
	if q.Has("key") {
		q.Set("key", "[REDACTED]")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func redactHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for name, values := range h {
		if isSensitiveHeader(name) {
			out[name] = "[REDACTED]"
			continue
		}
		out[name] = strings.Join(values, ", ")
	}
	return out
}

func isSensitiveHeader(name string) bool {
	for _, s := range sensitiveHeaders {
		if strings.EqualFold(name, s) {
			return true
		}
	}
	return false
}
