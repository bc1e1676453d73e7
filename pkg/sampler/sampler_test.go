package sampler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockSamplerDeterministic(t *testing.T) {
	ctx := context.Background()

	a := NewMockSampler(42)
	b := NewMockSampler(42)

	for i := 0; i < 20; i++ {
		sa, err := a.Sample(ctx, Prompt, nil)
		require.NoError(t, err)
		sb, err := b.Sample(ctx, Prompt, nil)
		require.NoError(t, err)
		assert.Equal(t, sa, sb)
		assert.Contains(t, mockBehaviors, sa)
	}
}

func TestPromptDocumentsContract(t *testing.T) {
	assert.Contains(t, Prompt, "func Behavior(state map[string]float64, self [2]float64, threat [2]float64) (float64, float64)")
	assert.Contains(t, Prompt, "num_alive")
}

func TestExtractCode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"fenced with language tag",
			"Here you go:\n```go\nfunc Behavior() {}\n```\nGood luck!",
			"func Behavior() {}",
		},
		{
			"fenced without language tag",
			"```\nvar x = 1\n```",
			"var x = 1",
		},
		{
			"no fence",
			"  func Behavior() {}  ",
			"func Behavior() {}",
		},
		{
			"unterminated fence",
			"```go\nfunc Behavior() {}",
			"func Behavior() {}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractCode(tt.in))
		})
	}
}

func TestNewAnthropicSamplerRequiresKey(t *testing.T) {
	_, err := NewAnthropicSampler("", "claude-sonnet-4-5")
	assert.Error(t, err)
}
