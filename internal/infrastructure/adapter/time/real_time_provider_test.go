package time

import (
	"context"
	"testing"
	"time"

	"github.com/nerbixa/payment-reconciler/internal/domain/port/core"
	"github.com/stretchr/testify/assert"
)

func TestRealTimeProvider(t *testing.T) {
	p := NewRealTimeProvider()

	now := p.Now()
	assert.Equal(t, time.UTC, now.Location())

	p.Sleep(core.Millisecond)
	assert.GreaterOrEqual(t, p.Since(now).Std(), time.Millisecond)

	ctx, cancel := p.WithTimeout(context.Background(), core.Millisecond)
	defer cancel()
	<-ctx.Done()
	assert.ErrorIs(t, ctx.Err(), context.DeadlineExceeded)
}
