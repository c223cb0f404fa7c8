package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aretw0/tandem/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestPartialOf(t *testing.T) {
	partial := domain.NewConversation(domain.NewUserMessage("draw GDP"))

	for _, err := range []error{
		&domain.AgentExecutionError{Agent: "researcher", Err: errors.New("boom"), Partial: partial},
		fmt.Errorf("run: %w", &domain.RoutingError{Node: "chart_generator", Key: "x", Partial: partial}),
		&domain.StepLimitError{Limit: 4, Partial: partial},
	} {
		got, ok := domain.PartialOf(err)
		assert.True(t, ok, err.Error())
		assert.Equal(t, 1, got.Len())
	}

	_, ok := domain.PartialOf(errors.New("plain"))
	assert.False(t, ok)

	_, ok = domain.PartialOf(&domain.StepLimitError{Limit: 1})
	assert.False(t, ok)
}

func TestStepLimitError_Is(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &domain.StepLimitError{Limit: 3})
	assert.ErrorIs(t, err, domain.ErrStepLimitExceeded)
	assert.Contains(t, err.Error(), "3 node executions")
}
