package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/jobfill/internal/store"
	"github.com/jonathan/jobfill/internal/types"
)

func TestBackground_Handle(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	bg := NewBackground(s)
	bg.now = func() time.Time { return time.UnixMilli(5000) }

	msg, err := JobDetected(types.JobPosting{Title: "Engineer", Company: "Acme"})
	require.NoError(t, err)
	require.NoError(t, bg.Handle(ctx, msg))

	jobs, err := store.ListDetectedJobs(ctx, s)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Acme", jobs[0].Company)
	assert.Equal(t, int64(5000), jobs[0].DetectedAt.UnixMilli())

	_, ok, err := s.Get(ctx, "job_5000")
	require.NoError(t, err)
	assert.True(t, ok)

	badge, err := store.Badge(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, 1, badge)
}

func TestBackground_IgnoresOtherTypes(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()

	require.NoError(t, NewBackground(s).Handle(ctx, Message{Type: TypeAutofill}))

	keys, err := s.Keys(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestBackground_Run(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := store.NewMemory()
	bus := NewBus(4)
	ch, unsubscribe := bus.Subscribe(TypeJobDetected)

	done := make(chan struct{})
	go func() {
		NewBackground(s).Run(ctx, ch)
		close(done)
	}()

	bad := Message{Type: TypeJobDetected, Data: []byte(`{"title":`)}
	good, err := JobDetected(types.JobPosting{Title: "SRE", Company: "Initech", DetectedAt: time.UnixMilli(42)})
	require.NoError(t, err)
	bus.Publish(bad)
	bus.Publish(good)
	unsubscribe()
	<-done

	jobs, err := store.ListDetectedJobs(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Initech", jobs[0].Company)
}
