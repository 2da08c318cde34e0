package utils

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// --- Sentinel Errors for Categorization ---
var (
	// Download outcomes
	ErrBlankResponseBody         = errors.New("response body was blank")
	ErrUnhandledResponseCode     = errors.New("unhandled response code")
	ErrUnrecognizedDeadEntryBody = errors.New("unrecognized 404 response body")
	ErrRetryExhausted            = errors.New("request failed after all retries") // Wraps the last underlying error
	ErrRobotsDisallowed          = errors.New("disallowed by robots.txt")
	ErrRequestCreation           = errors.New("failed to create HTTP request")
	ErrResponseBodyRead          = errors.New("failed to read response body")

	// Conversion outcomes
	ErrUnrecognizedTypeLabel   = errors.New("unrecognized type label")
	ErrUnrecognizedStatusLabel = errors.New("unrecognized status label")
	ErrMissingCanonicalSource  = errors.New("unable to extract source")
	ErrMissingTitle            = errors.New("title not found")
	ErrParsing                 = errors.New("parsing error") // Wraps specific parsing error (HTML, selector)
	ErrDurationMismatch        = errors.New("duration values and units do not pair up")
	ErrDurationOutOfRange      = errors.New("duration value out of range")

	ErrConfigValidation = errors.New("configuration validation error")
)

// WrapErrorf prefixes err with a formatted message, keeping it unwrappable. Returns nil for a nil err
func WrapErrorf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// CategorizeError maps an error to a predefined category string for logging.
func CategorizeError(err error) string {
	if err == nil {
		return "None"
	}

	switch {
	case errors.Is(err, ErrRetryExhausted):
		// The last attempt's outcome is part of the message ("status 403", a net error, ...)
		errMsg := strings.ToLower(err.Error())
		var netErr net.Error
		switch {
		case strings.Contains(errMsg, "status 403"):
			return "RetryExhausted_CrawlerDetected"
		case strings.Contains(errMsg, "status 429"):
			return "RetryExhausted_RateLimited"
		case strings.Contains(errMsg, "status 5"):
			return "RetryExhausted_HTTPServer"
		case strings.Contains(errMsg, "status 404"):
			return "RetryExhausted_TransientNotFound"
		case errors.As(err, &netErr) && netErr.Timeout():
			return "RetryExhausted_NetworkTimeout"
		}
		return "RetryExhausted_Other"
	case errors.Is(err, ErrBlankResponseBody):
		return "Download_BlankBody"
	case errors.Is(err, ErrUnhandledResponseCode):
		return "Download_UnhandledStatus"
	case errors.Is(err, ErrUnrecognizedDeadEntryBody):
		return "Download_Unrecognized404"
	case errors.Is(err, ErrRobotsDisallowed):
		return "Policy_Robots"
	case errors.Is(err, ErrRequestCreation):
		return "Internal_RequestCreation"
	case errors.Is(err, ErrResponseBodyRead):
		return "Network_BodyRead"
	case errors.Is(err, ErrUnrecognizedTypeLabel):
		return "Convert_UnknownType"
	case errors.Is(err, ErrUnrecognizedStatusLabel):
		return "Convert_UnknownStatus"
	case errors.Is(err, ErrMissingCanonicalSource):
		return "Convert_MissingSource"
	case errors.Is(err, ErrMissingTitle):
		return "Convert_MissingTitle"
	case errors.Is(err, ErrDurationMismatch), errors.Is(err, ErrDurationOutOfRange):
		return "Convert_Duration"
	case errors.Is(err, ErrParsing):
		errMsg := err.Error()
		if strings.Contains(errMsg, "selector") {
			return "Content_ParsingSelector"
		}
		if strings.Contains(errMsg, "HTML") {
			return "Content_ParsingHTML"
		}
		return "Content_ParsingOther"
	case errors.Is(err, ErrConfigValidation):
		return "Config_Validation"
	}

	// --- Fallback checks for common underlying error types/strings ---
	if errors.Is(err, context.Canceled) {
		return "System_ContextCanceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "System_ContextDeadlineExceeded"
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "Network_Timeout"
	}
	lowerErrMsg := strings.ToLower(err.Error())
	if strings.Contains(lowerErrMsg, "connection refused") {
		return "Network_ConnectionRefused"
	}
	if strings.Contains(lowerErrMsg, "no such host") {
		return "Network_DNSLookup"
	}
	if strings.Contains(lowerErrMsg, "tls") || strings.Contains(lowerErrMsg, "certificate") {
		return "Network_TLS"
	}
	if strings.Contains(lowerErrMsg, "reset by peer") {
		return "Network_ConnectionReset"
	}

	return "Unknown"
}
