package llm

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"syscall"

	openai "github.com/sashabaranov/go-openai"

	ferrors "git.home.luguber.info/inful/codetutor/internal/foundation/errors"
)

// ErrNoChoices indicates a completion response without any choices.
var ErrNoChoices = errors.New("completion returned no choices")

// ErrBlankResponse indicates a completion whose content was empty.
var ErrBlankResponse = errors.New("completion content is blank")

// Classify maps a Generate failure onto the error taxonomy.
// Already classified errors pass through unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := ferrors.AsClassified(err); ok {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return ferrors.CanceledError("model call canceled").WithCause(err).Build()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ferrors.ServiceTransient("model call timed out").WithCause(err).Build()
	}
	if errors.Is(err, ErrBlankResponse) {
		return ferrors.MalformedOutput("model returned an empty answer").WithCause(err).Build()
	}
	if errors.Is(err, ErrNoChoices) {
		return ferrors.ServiceFatal("model response has an unexpected shape").WithCause(err).Build()
	}

	if status, ok := httpStatus(err); ok {
		return classifyStatus(status, err)
	}

	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return ferrors.ServiceTransient("model service timed out").WithCause(err).Build()
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) || isConnectionMessage(err) {
		return ferrors.ServiceTransient("model service unreachable").WithCause(err).Build()
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ferrors.ServiceTransient("model service unreachable").WithCause(err).Build()
	}
	return ferrors.ServiceFatal("model call failed").WithCause(err).Build()
}

func classifyStatus(status int, err error) error {
	b := func(builder *ferrors.ErrorBuilder) error {
		return builder.WithCause(err).WithContext("http_status", status).Build()
	}
	switch {
	case status == http.StatusTooManyRequests:
		if isQuotaMessage(err) {
			return b(ferrors.ServiceFatal("model quota exhausted"))
		}
		return b(ferrors.ServiceTransient("model service rate limited").RateLimit())
	case status == http.StatusRequestTimeout, status == http.StatusConflict, status >= 500:
		return b(ferrors.ServiceTransient("model service temporarily unavailable"))
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return b(ferrors.ServiceFatal("model service rejected the credentials").UserAction())
	default:
		return b(ferrors.ServiceFatal("model service rejected the request"))
	}
}

func httpStatus(err error) (int, bool) {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return apiErr.HTTPStatusCode, true
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return reqErr.HTTPStatusCode, true
	}
	return 0, false
}

// isQuotaMessage spots the 429 variant that waiting does not fix.
func isQuotaMessage(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if code, ok := apiErr.Code.(string); ok && code == "insufficient_quota" {
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "insufficient_quota")
}

func isConnectionMessage(err error) bool {
	l := strings.ToLower(err.Error())
	return strings.Contains(l, "connection reset") || strings.Contains(l, "connection refused") || strings.HasSuffix(l, "eof")
}
