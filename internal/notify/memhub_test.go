package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemHub_PublishReachesSubscribers(t *testing.T) {
	h := NewMemHub()

	var wg sync.WaitGroup
	wg.Add(2)
	for i := 0; i < 2; i++ {
		dispose, err := h.Subscribe("ABC234", func() { wg.Done() })
		require.NoError(t, err)
		defer dispose()
	}

	require.NoError(t, h.Publish(context.Background(), "ABC234"))

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("subscribers were not signalled")
	}
}

func TestMemHub_PublishIsScopedToCode(t *testing.T) {
	h := NewMemHub()

	fired := make(chan string, 2)
	_, err := h.Subscribe("AAAAAA", func() { fired <- "a" })
	require.NoError(t, err)
	_, err = h.Subscribe("BBBBBB", func() { fired <- "b" })
	require.NoError(t, err)

	require.NoError(t, h.Publish(context.Background(), "AAAAAA"))

	select {
	case got := <-fired:
		assert.Equal(t, "a", got)
	case <-time.After(time.Second):
		t.Fatal("subscriber was not signalled")
	}
	select {
	case got := <-fired:
		t.Fatalf("unexpected signal for %q", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemHub_DisposerStopsDelivery(t *testing.T) {
	h := NewMemHub()

	fired := make(chan struct{}, 1)
	dispose, err := h.Subscribe("ABC234", func() { fired <- struct{}{} })
	require.NoError(t, err)

	dispose()
	// Disposing twice is harmless.
	dispose()

	require.NoError(t, h.Publish(context.Background(), "ABC234"))
	select {
	case <-fired:
		t.Fatal("disposed subscriber was signalled")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemHub_PublishWithoutSubscribers(t *testing.T) {
	h := NewMemHub()
	assert.NoError(t, h.Publish(context.Background(), "ZZZZZZ"))
}
