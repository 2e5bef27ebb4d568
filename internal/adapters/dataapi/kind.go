package dataapi

import (
	"strconv"

	perr "insightboard/internal/platform/errors"
)

// Failure kinds reported by Kind
const (
	KindNetwork        = "network"
	KindTimeout        = "timeout"
	KindUnauthorized   = "unauthorized"
	KindNotFound       = "not_found"
	KindServer         = "server"
	KindInvalidRequest = "invalid_request"
	KindDecode         = "decode"
)

// Kind names the failure class of err, "" for nil
// codes outside the client taxonomy render as "code_N"
func Kind(err error) string {
	if err == nil {
		return ""
	}
	switch perr.CodeOf(err) {
	case perr.ErrorCodeNetwork:
		return KindNetwork
	case perr.ErrorCodeTimeout:
		return KindTimeout
	case perr.ErrorCodeUnauthorized:
		return KindUnauthorized
	case perr.ErrorCodeNotFound:
		return KindNotFound
	case perr.ErrorCodeUpstream:
		return KindServer
	case perr.ErrorCodeInvalidArgument:
		return KindInvalidRequest
	case perr.ErrorCodeJSON:
		return KindDecode
	default:
		return "code_" + strconv.Itoa(int(perr.CodeOf(err)))
	}
}
