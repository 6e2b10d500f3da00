package youtubeapi

import (
	"context"
	"errors"
	"net"
	"net/url"

	"google.golang.org/api/googleapi"

	"github.com/onnwee/livechat-bot/monitor"
)

// classify converts a raw Data API or transport error into a
// monitor.SourceError with a closed kind. No raw error shape crosses this
// boundary; the poll loops switch on the kind alone.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	return &monitor.SourceError{Kind: kindOf(err), Op: op, Err: err}
}

func kindOf(err error) monitor.ErrorKind {
	var ge *googleapi.Error
	if errors.As(err, &ge) {
		switch {
		case ge.Code == 400 && hasReason(ge, "pageTokenInvalid"):
			return monitor.KindInvalidToken
		case ge.Code == 403 && (hasReason(ge, "quotaExceeded") || hasReason(ge, "rateLimitExceeded") || hasReason(ge, "userRateLimitExceeded")):
			// Quota pushback shares the 403 code with real permission
			// problems but is safe to retry on the next tick.
			return monitor.KindTransient
		case ge.Code == 401 || ge.Code == 403:
			return monitor.KindPermissionDenied
		case ge.Code == 404:
			return monitor.KindNotFound
		case ge.Code == 429 || ge.Code >= 500:
			return monitor.KindTransient
		default:
			return monitor.KindUnclassified
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return monitor.KindTransient
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return monitor.KindTransient
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		return monitor.KindTransient
	}
	return monitor.KindUnclassified
}

func hasReason(ge *googleapi.Error, reason string) bool {
	for _, item := range ge.Errors {
		if item.Reason == reason {
			return true
		}
	}
	return false
}
