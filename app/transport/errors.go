package transport

import (
	"errors"
)

// Protocol rejections the transfer layer handles with named fallback paths.
var (
	ErrCaptionTooLong = errors.New("media caption too long")
	ErrNotModified    = errors.New("message not modified")
	ErrRateLimited    = errors.New("rate limited")
)

// mapGatewayError translates a gateway error code into a typed error.
// Unrecognized codes come back as plain errors and leave the unit for retry.
func mapGatewayError(code, detail string) error {
	switch code {
	case "MEDIA_CAPTION_TOO_LONG":
		return ErrCaptionTooLong
	case "MESSAGE_NOT_MODIFIED":
		return ErrNotModified
	case "FLOOD_WAIT":
		return ErrRateLimited
	default:
		if detail != "" {
			return errors.New(code + ": " + detail)
		}
		return errors.New(code)
	}
}
