package browser

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorKind
	}{
		{nil, KindOther},
		{fmt.Errorf("click failed: %w", playwright.ErrTimeout), KindTimeout},
		{errors.New("Timeout 5000ms exceeded."), KindTimeout},
		{context.DeadlineExceeded, KindTimeout},
		{errors.New("Element is not attached to the DOM"), KindDetached},
		{errors.New("element handle is detached"), KindDetached},
		{errors.New("Target closed"), KindDetached},
		{errors.New("strict mode violation"), KindOther},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Categorize(tt.err), fmt.Sprint(tt.err))
	}
}

func TestStepErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := &StepError{Step: 3, Kind: KindOther, Err: inner}
	assert.True(t, errors.Is(err, inner))
	assert.Equal(t, "step 3 failed (other): boom", err.Error())
}
