package command

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yohamta/donburi"
	"go.uber.org/multierr"

	"github.com/zeusync/sandbox/internal/core/observability/log"
)

func TestQueue_FlushOrder(t *testing.T) {
	q := NewQueue(log.NewNop())
	w := donburi.NewWorld()

	var order []int
	for i := 0; i < 5; i++ {
		q.Push(Func(func(donburi.World) error {
			order = append(order, i)
			return nil
		}))
	}
	require.Equal(t, 5, q.Len())

	require.NoError(t, q.Flush(w))
	require.Equal(t, []int{0, 1, 2, 3, 4}, order)
	require.Zero(t, q.Len())
}

func TestQueue_CommandsPushedDuringFlush(t *testing.T) {
	q := NewQueue(log.NewNop())
	w := donburi.NewWorld()

	var order []string
	q.Push(Func(func(donburi.World) error {
		order = append(order, "first")
		q.Push(Func(func(donburi.World) error {
			order = append(order, "nested")
			return nil
		}))
		return nil
	}))
	q.Push(Func(func(donburi.World) error {
		order = append(order, "second")
		return nil
	}))

	require.NoError(t, q.Flush(w))
	require.Equal(t, []string{"first", "second", "nested"}, order)
}

func TestQueue_FailuresAreCollected(t *testing.T) {
	q := NewQueue(log.NewNop())
	w := donburi.NewWorld()

	errA := errors.New("a")
	errB := errors.New("b")
	ran := false

	q.Push(
		Func(func(donburi.World) error { return errA }),
		Func(func(donburi.World) error { ran = true; return nil }),
		Func(func(donburi.World) error { return errB }),
		nil,
	)

	err := q.Flush(w)
	require.True(t, ran, "a failing command must not stop the flush")
	require.ErrorIs(t, err, errA)
	require.ErrorIs(t, err, errB)
	require.Len(t, multierr.Errors(err), 2)
}

func TestQueue_ConcurrentPush(t *testing.T) {
	q := NewQueue(log.NewNop())
	w := donburi.NewWorld()

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		count int
	)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				q.Push(Func(func(donburi.World) error {
					mu.Lock()
					count++
					mu.Unlock()
					return nil
				}))
			}
		}()
	}
	wg.Wait()

	require.NoError(t, q.Flush(w))
	require.Equal(t, 800, count)
}
