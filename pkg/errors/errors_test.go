package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	err := New(ErrCodeAssessmentNotFound, "no assessment")
	assert.Equal(t, "[RISK_001] no assessment", err.Error())

	with := err.WithDetail("property P-1042")
	assert.Equal(t, "[RISK_001] no assessment: property P-1042", with.Error())
}

func TestWithDetail_CopiesNotMutates(t *testing.T) {
	base := New(ErrCodeInternal, "boom")
	detailed := base.WithDetail("extra")

	assert.Empty(t, base.Detail)
	assert.Equal(t, "extra", detailed.Detail)
	assert.Equal(t, base.Code, detailed.Code)

	var nilErr *AppError
	assert.Nil(t, nilErr.WithDetail("x"))
	assert.Nil(t, nilErr.WithCause(stderrors.New("y")))
}

func TestWrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(cause, ErrCodeDatabaseError, "save assessment")

	require.NotNil(t, err)
	assert.Equal(t, ErrCodeDatabaseError, err.Code)
	assert.True(t, stderrors.Is(err, cause))
	assert.Nil(t, Wrap(nil, ErrCodeDatabaseError, "nothing"))
}

func TestWrap_InternalPreservesOriginalCode(t *testing.T) {
	inner := New(ErrCodeAssessmentNotFound, "missing")
	outer := Wrap(inner, ErrCodeInternal, "lookup failed")

	assert.Equal(t, ErrCodeAssessmentNotFound, outer.Code)

	// An explicit non-internal code always wins.
	reclassified := Wrap(inner, ErrCodeDatabaseError, "lookup failed")
	assert.Equal(t, ErrCodeDatabaseError, reclassified.Code)
}

func TestIsCode_TraversesChain(t *testing.T) {
	inner := New(ErrCodeCacheError, "miss")
	outer := fmt.Errorf("outer: %w", Wrap(inner, ErrCodeDatabaseError, "load"))

	assert.True(t, IsCode(outer, ErrCodeDatabaseError))
	assert.True(t, IsCode(outer, ErrCodeCacheError))
	assert.False(t, IsCode(outer, ErrCodeTimeout))
	assert.False(t, IsCode(nil, ErrCodeTimeout))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(New(ErrCodeNotFound, "x")))
	assert.True(t, IsNotFound(New(ErrCodeAssessmentNotFound, "x")))
	assert.True(t, IsNotFound(fmt.Errorf("wrapped: %w", NewNotFound("x"))))
	assert.False(t, IsNotFound(New(ErrCodeTimeout, "x")))
	assert.False(t, IsNotFound(nil))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodeOK, GetCode(nil))
	assert.Equal(t, ErrCodeValidation, GetCode(NewValidation("bad input")))
	assert.Equal(t, ErrCodeInternal, GetCode(stderrors.New("plain")))
}

func TestFactories(t *testing.T) {
	assert.Equal(t, ErrCodeValidation, NewValidation("v").Code)
	assert.Equal(t, ErrCodeNotFound, NewNotFound("n").Code)
	assert.Equal(t, ErrCodeInternal, NewInternal("i").Code)
	assert.Equal(t, ErrCodeConfiguration, NewConfiguration("c").Code)
	assert.Equal(t, ErrCodeServiceUnavailable, NewUnavailable("u").Code)
}

func TestNew_CapturesStack(t *testing.T) {
	err := New(ErrCodeInternal, "boom")
	assert.Contains(t, err.Stack, "errors_test.go")
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeAssessmentNotFound, http.StatusNotFound},
		{ErrCodeNoSourceData, http.StatusUnprocessableEntity},
		{ErrCodeProviderFetchFailed, http.StatusBadGateway},
		{ErrCodeProviderTimeout, http.StatusGatewayTimeout},
		{ErrorCode("SOMETHING_NEW"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.code.HTTPStatus(), "code %s", tc.code)
	}
}
