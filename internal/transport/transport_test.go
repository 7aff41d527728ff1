package transport

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectiveIDRootIsAlwaysZero(t *testing.T) {
	for n := uint32(1); n < 8; n++ {
		for src := uint32(0); src < n; src++ {
			assert.Equal(t, uint32(0), effectiveID(src, src, n))
		}
	}
}

func TestEffectiveIDAndRealHostIDAreInverse(t *testing.T) {
	const n = 7
	for src := uint32(0); src < n; src++ {
		for real := uint32(0); real < n; real++ {
			eid := effectiveID(real, src, n)
			assert.Equal(t, real, realHostID(eid, src, n))
		}
	}
}

func TestBroadcastChildrenCoverEveryHostExactlyOnce(t *testing.T) {
	for n := uint32(1); n <= 9; n++ {
		for src := uint32(0); src < n; src++ {
			seen := map[uint32]bool{src: true}
			var walk func(relay uint32)
			walk = func(relay uint32) {
				for _, c := range broadcastChildren(relay, src, n) {
					require.False(t, seen[c], "host %d visited twice for n=%d src=%d", c, n, src)
					seen[c] = true
					walk(c)
				}
			}
			walk(src)
			assert.Len(t, seen, int(n), "n=%d src=%d", n, src)
		}
	}
}

func TestLoopTransportSendDeliversToHandler(t *testing.T) {
	group := NewLoopGroup(3)
	var got []byte
	var from uint32
	group[2].RegisterHandler("echo", func(f uint32, payload []byte) error {
		from = f
		got = payload
		return nil
	})

	err := group[0].Send(context.Background(), 2, "echo", []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, uint32(0), from)
	assert.Equal(t, []byte("hello"), got)
}

func TestLoopTransportSendUnknownHost(t *testing.T) {
	group := NewLoopGroup(2)
	err := group[0].Send(context.Background(), 5, "echo", nil)
	assert.Error(t, err)
}

func TestLoopTransportBroadcastReachesEveryHostOnce(t *testing.T) {
	const n = 5
	group := NewLoopGroup(n)

	var mu sync.Mutex
	counts := make(map[uint32]int)
	for i := uint32(0); i < n; i++ {
		i := i
		group[i].RegisterHandler("gossip", func(from uint32, payload []byte) error {
			mu.Lock()
			counts[i]++
			mu.Unlock()
			return nil
		})
	}

	err := group[1].Broadcast(context.Background(), "gossip", []byte("x"), true)
	require.NoError(t, err)

	for i := uint32(0); i < n; i++ {
		assert.Equal(t, 1, counts[i], "host %d delivery count", i)
	}
}

func TestLoopTransportBroadcastExcludesSelfWhenRequested(t *testing.T) {
	const n = 4
	group := NewLoopGroup(n)

	var mu sync.Mutex
	delivered := map[uint32]bool{}
	for i := uint32(0); i < n; i++ {
		i := i
		group[i].RegisterHandler("gossip", func(from uint32, payload []byte) error {
			mu.Lock()
			delivered[i] = true
			mu.Unlock()
			return nil
		})
	}

	require.NoError(t, group[0].Broadcast(context.Background(), "gossip", nil, false))

	assert.False(t, delivered[0])
	for i := uint32(1); i < n; i++ {
		assert.True(t, delivered[i], "host %d", i)
	}
}

func TestLoopTransportBarrierReleasesAllHosts(t *testing.T) {
	const n = 4
	group := NewLoopGroup(n)

	var wg sync.WaitGroup
	released := make([]bool, n)
	var mu sync.Mutex

	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := group[i].Barrier(context.Background())
			mu.Lock()
			released[i] = err == nil
			mu.Unlock()
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("barrier did not release within timeout")
	}

	for i, ok := range released {
		assert.True(t, ok, "host %d", i)
	}
}

func TestLoopTransportBarrierCanBeCalledRepeatedly(t *testing.T) {
	const n = 3
	group := NewLoopGroup(n)

	for round := 0; round < 3; round++ {
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			i := i
			wg.Add(1)
			go func() {
				defer wg.Done()
				require.NoError(t, group[i].Barrier(context.Background()))
			}()
		}
		wg.Wait()
	}
}
