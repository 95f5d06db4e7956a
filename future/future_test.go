package future_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/dagflow/future"
)

func TestImmediate(t *testing.T) {
	f := future.Immediate(42)
	v, err := f.Get()
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	r, ok := f.Peek()
	require.True(t, ok)
	assert.Equal(t, 42, r.Value)
}

func TestImmediateFailure(t *testing.T) {
	cause := errors.New("boom")
	f := future.ImmediateFailure[int](cause)
	_, err := f.Get()
	assert.ErrorIs(t, err, cause)
}

func TestPromiseSettlesOnce(t *testing.T) {
	p, f := future.NewPromise[string]()
	assert.True(t, p.Succeed("first"))
	assert.False(t, p.Succeed("second"))
	assert.False(t, p.Fail(errors.New("ignored")))

	v, err := f.Get()
	require.NoError(t, err)
	assert.Equal(t, "first", v)
}

func TestOnCompleteAfterSettle(t *testing.T) {
	f := future.Immediate("done")
	called := false
	f.OnComplete(func(r future.Result[string]) {
		called = true
		assert.Equal(t, "done", r.Value)
	})
	assert.True(t, called)
}

func TestAllOfSucceeds(t *testing.T) {
	deps := []future.Future[any]{
		future.Erase(future.Immediate(1)),
		future.Erase(future.Immediate("two")),
	}
	r := future.AllOf(deps)
	vals, err := r.Get()
	require.NoError(t, err)
	assert.Equal(t, []any{1, "two"}, vals)
}

func TestAllOfFailsFast(t *testing.T) {
	cause := errors.New("dep failed")
	deps := []future.Future[any]{
		future.Erase(future.Immediate(1)),
		future.Erase(future.ImmediateFailure[int](cause)),
	}
	_, err := future.AllOf(deps).Get()
	assert.ErrorIs(t, err, cause)
}

func TestAllOfEmpty(t *testing.T) {
	vals, err := future.AllOf(nil).Get()
	require.NoError(t, err)
	assert.Nil(t, vals)
}
