package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispatch/internal/domain"
	"dispatch/internal/events"
)

func TestGeneratePaymentIntent(t *testing.T) {
	f := newDispatchFixture(t)
	f.seed("done", domain.JourneyStatusCompleted)
	f.seed("riding", domain.JourneyStatusStarted)

	intent, err := f.svc.GeneratePaymentIntent(context.Background(), riderActor, "done")
	require.NoError(t, err)
	assert.Equal(t, "done", intent.JourneyID)
	assert.Equal(t, int64(240), intent.Amount)
	assert.Equal(t, domain.PaymentMethodUPI, intent.Method)
	assert.Equal(t, fixedNow, intent.IssuedAt)

	_, err = f.svc.GeneratePaymentIntent(context.Background(), riderActor, "riding")
	assert.ErrorIs(t, err, ErrJourneyNotCompleted)

	_, err = f.svc.GeneratePaymentIntent(context.Background(), driverActor, "done")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestGeneratePaymentIntent_FallsBackToEstimate(t *testing.T) {
	f := newDispatchFixture(t)
	j := f.seed("done", domain.JourneyStatusCompleted)
	j.ActualFare = nil
	f.journeys.AddJourney(j)

	intent, err := f.svc.GeneratePaymentIntent(context.Background(), riderActor, "done")
	require.NoError(t, err)
	assert.Equal(t, int64(228), intent.Amount)
}

func TestGeneratePaymentIntent_AlreadyPaid(t *testing.T) {
	f := newDispatchFixture(t)
	j := f.seed("done", domain.JourneyStatusCompleted)
	j.PaymentStatus = domain.PaymentStatusCompleted
	f.journeys.AddJourney(j)

	_, err := f.svc.GeneratePaymentIntent(context.Background(), riderActor, "done")
	assert.ErrorIs(t, err, ErrAlreadyPaid)
}

func TestConfirmPayment_IsIdempotent(t *testing.T) {
	f := newDispatchFixture(t)
	f.seed("done", domain.JourneyStatusCompleted)

	first, err := f.svc.ConfirmPayment(context.Background(), riderActor, "done")
	require.NoError(t, err)
	assert.False(t, first.AlreadyPaid)
	assert.Equal(t, int64(240), first.Amount)
	assert.Equal(t, domain.PaymentMethodUPI, first.Method)
	assert.Equal(t, domain.PaymentStatusCompleted, f.journeys.GetJourney("done").PaymentStatus)
	assert.Equal(t, int32(1), f.journeys.UpdateCallCount)

	second, err := f.svc.ConfirmPayment(context.Background(), riderActor, "done")
	require.NoError(t, err)
	assert.True(t, second.AlreadyPaid)
	assert.Equal(t, int64(240), second.Amount)
	assert.Equal(t, int32(1), f.journeys.UpdateCallCount)

	assert.Equal(t, []events.Kind{events.KindPaid}, f.publisher.Kinds())
}

func TestConfirmPayment_ConcurrentCallsPayOnce(t *testing.T) {
	f := newDispatchFixture(t)
	f.seed("done", domain.JourneyStatusCompleted)

	const callers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		settled int
		start   = make(chan struct{})
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			c, err := f.svc.ConfirmPayment(context.Background(), riderActor, "done")
			if !assert.NoError(t, err) {
				return
			}
			if !c.AlreadyPaid {
				mu.Lock()
				settled++
				mu.Unlock()
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, settled)
	assert.Len(t, f.publisher.Kinds(), 1)
}

func TestConfirmPayment_Guards(t *testing.T) {
	f := newDispatchFixture(t)
	f.seed("riding", domain.JourneyStatusStarted)
	f.seed("done", domain.JourneyStatusCompleted)

	_, err := f.svc.ConfirmPayment(context.Background(), riderActor, "riding")
	assert.ErrorIs(t, err, ErrJourneyNotCompleted)

	_, err = f.svc.ConfirmPayment(context.Background(), otherRider, "done")
	assert.ErrorIs(t, err, ErrUnauthorized)

	assert.Equal(t, int32(0), f.journeys.UpdateCallCount)
}
