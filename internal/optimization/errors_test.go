package optimization

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorRendering(t *testing.T) {
	cause := errors.New("connection refused")

	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "message only",
			err:  NewError("constraints bind no continuous field"),
			want: "constraints bind no continuous field",
		},
		{
			name: "with operation and component",
			err: NewError("no bounded field").
				WithOperation("Engine.Run").
				WithComponent("engine"),
			want: "engine: Engine.Run: no bounded field",
		},
		{
			name: "with cause",
			err: WrapError(cause, "oracle prediction failed").
				WithOperation("ObjectiveModel.Evaluate").
				WithComponent("optimization"),
			want: "optimization: ObjectiveModel.Evaluate: oracle prediction failed: connection refused",
		},
		{
			name: "operation without component",
			err:  NewErrorf("unknown objective type %q", "PARETO").WithOperation("Engine.Run"),
			want: `Engine.Run: unknown objective type "PARETO"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestWrapErrorNilCause(t *testing.T) {
	assert.Nil(t, WrapError(nil, "ignored"))
	assert.Nil(t, WrapErrorf(nil, "ignored %d", 1))
}

func TestErrorUnwrapChain(t *testing.T) {
	cause := errors.New("boom")
	err := WrapError(cause, "evaluation failed")

	assert.ErrorIs(t, err, cause)

	extracted, ok := IsOptimizationError(err)
	require.True(t, ok)
	assert.Equal(t, "evaluation failed", extracted.Message)
}

func TestIsOptimizationErrorOnForeignError(t *testing.T) {
	_, ok := IsOptimizationError(errors.New("plain"))
	assert.False(t, ok)
}
