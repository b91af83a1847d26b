package utils

import (
	"context"
	"net"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// IsTransient reports whether a refinement failure is likely to go away on
// its own (rate limits, provider outages, timeouts). Callers use it to word
// the notice shown to the user; nothing is retried automatically.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var openAIErr *openai.APIError
	if errors.As(err, &openAIErr) {
		return transientStatus(openAIErr.HTTPStatusCode)
	}
	var openAIReqErr *openai.RequestError
	if errors.As(err, &openAIReqErr) {
		return transientStatus(openAIReqErr.HTTPStatusCode)
	}
	if code, ok := genaiStatus(err); ok {
		return transientStatus(code)
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "rate limit") ||
		strings.Contains(errMsg, "500 internal server error") ||
		strings.Contains(errMsg, "502 bad gateway") ||
		strings.Contains(errMsg, "503 service unavailable") ||
		strings.Contains(errMsg, "504 gateway timeout") ||
		strings.Contains(errMsg, "timeout") ||
		strings.Contains(errMsg, "connection reset by peer") ||
		strings.Contains(errMsg, "connection refused") {
		return true
	}
	return false
}

func transientStatus(code int) bool {
	return code >= 500 || code == 429
}

// genaiStatus digs the HTTP status out of a Gemini API error anywhere in the chain.
func genaiStatus(err error) (int, bool) {
	for e := err; e != nil; e = errors.UnwrapOnce(e) {
		switch v := any(e).(type) {
		case genai.APIError:
			return v.Code, true
		case *genai.APIError:
			return v.Code, true
		}
	}
	return 0, false
}
