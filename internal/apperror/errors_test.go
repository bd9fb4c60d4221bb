package apperror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromKeepsCode(t *testing.T) {
	base := ConnectionOpenFailure(errors.New("dial tcp: refused"))
	wrapped := fmt.Errorf("print attempt 1: %w", base)

	got := From(wrapped)
	assert.Equal(t, CodeConnectionOpenFailure, got.Code)
	assert.Same(t, base, got)
}

func TestFromContextErrors(t *testing.T) {
	assert.Equal(t, CodeTimeout, From(context.DeadlineExceeded).Code)
	assert.Equal(t, CodeTimeout, From(fmt.Errorf("wait: %w", context.Canceled)).Code)
}

func TestFromUnknownIsInternal(t *testing.T) {
	got := From(errors.New("boom"))
	assert.Equal(t, CodeInternal, got.Code)
	assert.Nil(t, From(nil))
}

func TestErrorsIsByCode(t *testing.T) {
	err := fmt.Errorf("discovery: %w", PermissionDenied("Bluetooth permission denied"))

	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.NotErrorIs(t, err, ErrInvalidArgument)
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "INVALID_ARGUMENT: printer is required", InvalidArgument("printer is required").Error())
	assert.Contains(t, VendorCommunicationFailure(errors.New("eof")).Error(), "eof")
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(CodeCommandCompileFailure))
	assert.Equal(t, http.StatusForbidden, HTTPStatus(CodePermissionDenied))
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(CodeVendorCommunicationFailure))
	assert.Equal(t, http.StatusNotImplemented, HTTPStatus(CodeNotImplemented))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(CodeInternal))
}
