package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tag-registry/internal/domain"
	"github.com/pkordes/tag-registry/internal/service"
)

// joinDelay gives a second caller time to reach the in-flight call.
const joinDelay = 50 * time.Millisecond

type resolved struct {
	tag domain.Tag
	err error
}

func TestFindOrCreateByName_ConcurrentCallersCreateOnce(t *testing.T) {
	tags := newBlockingTagRepo(false, true)
	r, err := service.NewTagResolver(tags, nil, service.ResolverOptions{EnforceUniqueness: true}, nil)
	require.NoError(t, err)
	ctx := context.Background()

	results := make(chan resolved, 2)
	resolve := func(name string) {
		tag, err := r.FindOrCreateByName(ctx, name)
		results <- resolved{tag, err}
	}

	go resolve("Desert")
	<-tags.entered
	go resolve("desert")
	time.Sleep(joinDelay)
	close(tags.release)

	a, b := <-results, <-results
	require.NoError(t, a.err)
	require.NoError(t, b.err)
	assert.Equal(t, a.tag.ID, b.tag.ID)
	assert.Equal(t, 1, tags.creates)
}

func TestFindOrCreateAllByNames_ConcurrentBatchesCreateOnce(t *testing.T) {
	tags := newBlockingTagRepo(false, true)
	r, err := service.NewTagResolver(tags, nil, service.ResolverOptions{EnforceUniqueness: true}, nil)
	require.NoError(t, err)
	ctx := context.Background()

	results := make(chan resolved, 2)
	resolve := func(names ...string) {
		got, err := r.FindOrCreateAllByNames(ctx, names)
		if err != nil {
			results <- resolved{err: err}
			return
		}
		results <- resolved{tag: got[0]}
	}

	go resolve("canyon")
	<-tags.entered
	go resolve("Canyon", "mesa")
	time.Sleep(joinDelay)
	close(tags.release)

	a, b := <-results, <-results
	require.NoError(t, a.err)
	require.NoError(t, b.err)
	assert.Equal(t, a.tag.ID, b.tag.ID)
	assert.Equal(t, 2, tags.creates, "canyon once, mesa once")
}

// A caller that gives up must not fail the callers sharing its lookup.
func TestFindOrCreateByName_CancelledCallerDoesNotFailOthers(t *testing.T) {
	tags := newBlockingTagRepo(true, false)
	r, err := service.NewTagResolver(tags, nil, service.ResolverOptions{EnforceUniqueness: true}, nil)
	require.NoError(t, err)

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()

	errA := make(chan error, 1)
	go func() {
		_, err := r.FindOrCreateByName(ctxA, "desert")
		errA <- err
	}()
	<-tags.entered

	resB := make(chan resolved, 1)
	go func() {
		tag, err := r.FindOrCreateByName(context.Background(), "desert")
		resB <- resolved{tag, err}
	}()
	time.Sleep(joinDelay)

	cancelA()
	assert.ErrorIs(t, <-errA, context.Canceled)

	close(tags.release)
	b := <-resB
	require.NoError(t, b.err)
	assert.Equal(t, "desert", b.tag.Name)
	assert.Equal(t, 1, tags.creates)
}
