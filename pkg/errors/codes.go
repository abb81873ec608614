package errors

import "net/http"

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// CodeOK is the sentinel code returned by GetCode for a nil error.
const CodeOK ErrorCode = "OK"

// Common error codes.
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeConflict           ErrorCode = "COMMON_004"
	ErrCodeTimeout            ErrorCode = "COMMON_005"
	ErrCodeValidation         ErrorCode = "COMMON_006"
	ErrCodeSerialization      ErrorCode = "COMMON_007"
	ErrCodeDatabaseError      ErrorCode = "COMMON_008"
	ErrCodeCacheError         ErrorCode = "COMMON_009"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_010"
	ErrCodeConfiguration      ErrorCode = "COMMON_011"
)

// Risk-assessment module error codes.
const (
	ErrCodeAssessmentNotFound  ErrorCode = "RISK_001"
	ErrCodeAssessmentFailed    ErrorCode = "RISK_002"
	ErrCodeHazardConfigInvalid ErrorCode = "RISK_003"
	ErrCodeRiskBandsInvalid    ErrorCode = "RISK_004"
	ErrCodeNoSourceData        ErrorCode = "RISK_005"
)

// Provider/ingest module error codes.
const (
	ErrCodeProviderFetchFailed ErrorCode = "PROV_001"
	ErrCodeProviderTimeout     ErrorCode = "PROV_002"
	ErrCodeArchiveFailed       ErrorCode = "PROV_003"
)

// httpStatusByCode maps every error code to the HTTP status used by the API
// layer.  Codes absent from the map fall back to 500.
var httpStatusByCode = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeConfiguration:      http.StatusInternalServerError,

	ErrCodeAssessmentNotFound:  http.StatusNotFound,
	ErrCodeAssessmentFailed:    http.StatusInternalServerError,
	ErrCodeHazardConfigInvalid: http.StatusInternalServerError,
	ErrCodeRiskBandsInvalid:    http.StatusInternalServerError,
	ErrCodeNoSourceData:        http.StatusUnprocessableEntity,

	ErrCodeProviderFetchFailed: http.StatusBadGateway,
	ErrCodeProviderTimeout:     http.StatusGatewayTimeout,
	ErrCodeArchiveFailed:       http.StatusInternalServerError,
}

// HTTPStatus returns the HTTP status code associated with c.
func (c ErrorCode) HTTPStatus() int {
	if status, ok := httpStatusByCode[c]; ok {
		return status
	}
	return http.StatusInternalServerError
}
