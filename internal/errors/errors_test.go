package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoreError_Unwrap_PreservesOriginalError(t *testing.T) {
	originalErr := errors.New("original error")
	ce := New(ErrCodeFileNotFound, "file not found: test.txt", originalErr)

	require.NotNil(t, ce)
	assert.Equal(t, originalErr, errors.Unwrap(ce))
	assert.True(t, errors.Is(ce, originalErr))
}

func TestCoreError_Error_ReturnsFormattedMessage(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		message  string
		expected string
	}{
		{
			name:     "not found",
			code:     ErrCodeSessionNotFound,
			message:  "session not found",
			expected: "[ERR_101_SESSION_NOT_FOUND] session not found",
		},
		{
			name:     "file error",
			code:     ErrCodeFileNotFound,
			message:  "file.go not found",
			expected: "[ERR_104_FILE_NOT_FOUND] file.go not found",
		},
		{
			name:     "invalid query",
			code:     ErrCodeInvalidQuery,
			message:  "query cannot be blank",
			expected: "[ERR_302_INVALID_QUERY] query cannot be blank",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, nil)
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestCoreError_Is_MatchesByCode(t *testing.T) {
	err1 := New(ErrCodeFileNotFound, "file A not found", nil)
	err2 := New(ErrCodeFileNotFound, "file B not found", nil)
	assert.True(t, errors.Is(err1, err2))
}

func TestCoreError_Is_DoesNotMatchDifferentCodes(t *testing.T) {
	err1 := New(ErrCodeFileNotFound, "file not found", nil)
	err2 := New(ErrCodeSessionNotFound, "session not found", nil)
	assert.False(t, errors.Is(err1, err2))
}

func TestCoreError_WithDetails_AddsContext(t *testing.T) {
	err := New(ErrCodeFileNotFound, "file not found", nil)
	err = err.WithDetail("path", "/foo/bar.go")
	err = err.WithDetail("size", "1024")

	assert.Equal(t, "/foo/bar.go", err.Details["path"])
	assert.Equal(t, "1024", err.Details["size"])
}

func TestCoreError_WithSuggestion_AddsSuggestion(t *testing.T) {
	err := New(ErrCodeInvalidQuery, "query too long", nil)
	err = err.WithSuggestion("shorten the query")
	assert.Equal(t, "shorten the query", err.Suggestion)
}

func TestCoreError_KindFromCode(t *testing.T) {
	tests := []struct {
		code     string
		wantKind Kind
	}{
		{ErrCodeSessionNotFound, KindNotFound},
		{ErrCodeSessionExists, KindAlreadyExists},
		{ErrCodeFileNotFound, KindNotFound},
		{ErrCodeFilePermission, KindIOFailed},
		{ErrCodeDiskFull, KindIOFailed},
		{ErrCodeInvalidQuery, KindInvalid},
		{ErrCodeInvalidSessionID, KindInvalid},
		{ErrCodeStaleSchema, KindStale},
		{ErrCodeIndexFailed, KindIndexFailed},
		{ErrCodeSearchFailed, KindSearchFailed},
		{ErrCodeInternal, KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "test message", nil)
			assert.Equal(t, tt.wantKind, err.Kind)
		})
	}
}

func TestWrap_CreatesCoreErrorFromError(t *testing.T) {
	originalErr := errors.New("something went wrong")
	ce := Wrap(ErrCodeInternal, originalErr)

	require.NotNil(t, ce)
	assert.Equal(t, ErrCodeInternal, ce.Code)
	assert.Equal(t, "something went wrong", ce.Message)
	assert.Equal(t, originalErr, ce.Cause)
}

func TestWrap_NilErrorReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestStaleError_NamesSessionAndVersions(t *testing.T) {
	ce := StaleError("myrepo", 1, 3)

	assert.Equal(t, KindStale, ce.Kind)
	assert.Contains(t, ce.Message, "myrepo")
	assert.Contains(t, ce.Message, "1")
	assert.Contains(t, ce.Message, "3")
	assert.Contains(t, ce.Suggestion, "myrepo")
	assert.Contains(t, ce.Suggestion, "reindex")
}

func TestIs_MatchesKind(t *testing.T) {
	err := New(ErrCodeSessionNotFound, "not found", nil)
	assert.True(t, Is(err, KindNotFound))
	assert.False(t, Is(err, KindInvalid))
	assert.False(t, Is(errors.New("plain"), KindNotFound))
}

func TestGetCode_GetKind(t *testing.T) {
	err := New(ErrCodeInvalidQuery, "bad query", nil)
	assert.Equal(t, ErrCodeInvalidQuery, GetCode(err))
	assert.Equal(t, KindInvalid, GetKind(err))

	assert.Equal(t, "", GetCode(errors.New("plain")))
	assert.Equal(t, Kind(""), GetKind(errors.New("plain")))
}
