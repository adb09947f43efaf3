package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifiedError_BuilderFields(t *testing.T) {
	err := NewError(CategoryConfig, "invalid configuration").
		WithSeverity(SeverityFatal).
		WithContext("file", "sitebuilder.yaml").
		Build()

	assert.Equal(t, CategoryConfig, err.Category())
	assert.Equal(t, SeverityFatal, err.Severity())
	assert.Equal(t, "invalid configuration", err.Message())

	file, ok := err.Context().GetString("file")
	require.True(t, ok)
	assert.Equal(t, "sitebuilder.yaml", file)
	assert.Equal(t, "[config:fatal] invalid configuration", err.Error())
}

func TestClassifiedError_WrapsCause(t *testing.T) {
	cause := stderrors.New("yaml: line 3: did not find expected key")
	err := DataError("failed to parse token document").
		WithCause(cause).
		WithContext("path", "src/_data/tokens.yml").
		Build()

	require.ErrorIs(t, err, cause)
	assert.True(t, err.IsFatal())
	assert.Contains(t, err.Error(), "did not find expected key")
}

func TestAsClassified_FindsWrappedError(t *testing.T) {
	inner := HookError("before-build step failed").WithContext("step", "favicon").Build()
	wrapped := fmt.Errorf("build aborted: %w", inner)

	got, ok := AsClassified(wrapped)
	require.True(t, ok)
	assert.Same(t, inner, got)
	assert.True(t, HasCategory(wrapped, CategoryHook))
	assert.Equal(t, CategoryHook, GetCategory(wrapped))
	assert.Equal(t, SeverityFatal, GetSeverity(wrapped))
}

func TestGetCategory_Unclassified(t *testing.T) {
	err := stderrors.New("plain")
	assert.False(t, IsClassified(err))
	assert.Equal(t, CategoryInternal, GetCategory(err))
	assert.Equal(t, SeverityError, GetSeverity(err))
}

func TestClassifiedError_WithContextDoesNotMutateOriginal(t *testing.T) {
	base := RenderError("layout failed").WithContext("layout", "base.html").Build()
	derived := base.WithContext("url", "/about/")

	_, ok := base.Context().Get("url")
	assert.False(t, ok)
	url, ok := derived.Context().GetString("url")
	require.True(t, ok)
	assert.Equal(t, "/about/", url)
	layout, _ := derived.Context().GetString("layout")
	assert.Equal(t, "base.html", layout)
}

func TestClassifiedError_Is(t *testing.T) {
	a := NotFoundError("layout not found").Build()
	b := NotFoundError("layout not found").WithContext("layout", "x.html").Build()
	c := NotFoundError("data file not found").Build()

	assert.True(t, stderrors.Is(a, b))
	assert.False(t, stderrors.Is(a, c))
}

func TestErrorContext_MergeNil(t *testing.T) {
	var nilCtx ErrorContext
	other := ErrorContext{"k": "v"}
	assert.Equal(t, other, nilCtx.Merge(other))
	assert.Equal(t, other, other.Merge(nil))
}
