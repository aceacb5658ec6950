package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/uwenvati/omotailor/internal/cart"
	"github.com/uwenvati/omotailor/internal/domain"
	"github.com/uwenvati/omotailor/internal/storage"
)

var kaftan = domain.ProductRef{ID: "2", Name: "Indigo Adire Kaftan", Price: decimal.NewFromInt(20000)}

func TestRegistry_SameSessionSameStore(t *testing.T) {
	r := NewRegistry(storage.NewMemory(), time.Minute, zaptest.NewLogger(t))
	ctx := context.Background()

	a, err := r.Get(ctx, "s1")
	require.NoError(t, err)
	b, err := r.Get(ctx, "s1")
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_SessionsAreIsolated(t *testing.T) {
	mem := storage.NewMemory()
	r := NewRegistry(mem, time.Minute, zaptest.NewLogger(t))
	ctx := context.Background()

	a, err := r.Get(ctx, "s1")
	require.NoError(t, err)
	b, err := r.Get(ctx, "s2")
	require.NoError(t, err)

	a.AddItem(ctx, kaftan, 2, "M", "indigo")

	assert.Equal(t, 2, a.ItemCount())
	assert.True(t, b.IsEmpty())

	_, err = mem.Get(ctx, "session:s1:"+cart.ItemsKey)
	assert.NoError(t, err)
	_, err = mem.Get(ctx, "session:s2:"+cart.ItemsKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRegistry_ForgetRestoresFromStorage(t *testing.T) {
	r := NewRegistry(storage.NewMemory(), time.Minute, zaptest.NewLogger(t))
	ctx := context.Background()

	first, err := r.Get(ctx, "s1")
	require.NoError(t, err)
	first.AddItem(ctx, kaftan, 3, "M", "indigo")
	require.True(t, first.ApplyPromoCode(ctx, "save10"))

	r.Forget("s1")
	assert.Equal(t, 0, r.Len())

	second, err := r.Get(ctx, "s1")
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, 3, second.ItemCount())
	promo, ok := second.Promo()
	require.True(t, ok)
	assert.Equal(t, "SAVE10", promo.Code)
}

func TestRegistry_ConcurrentFirstUseSharesStore(t *testing.T) {
	r := NewRegistry(storage.NewMemory(), time.Minute, zaptest.NewLogger(t))
	ctx := context.Background()

	const n = 20
	stores := make([]*cart.Store, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := r.Get(ctx, "shared")
			assert.NoError(t, err)
			stores[i] = s
		}(i)
	}
	wg.Wait()

	for _, s := range stores[1:] {
		assert.Same(t, stores[0], s)
	}
}

func TestRegistry_EmptySessionID(t *testing.T) {
	r := NewRegistry(storage.NewMemory(), time.Minute, zaptest.NewLogger(t))

	_, err := r.Get(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidSessionID)
}

// unreadableStorage fails every read until healed.
type unreadableStorage struct {
	storage.Storage
	mu     sync.Mutex
	broken bool
}

func (u *unreadableStorage) Get(ctx context.Context, key string) ([]byte, error) {
	u.mu.Lock()
	broken := u.broken
	u.mu.Unlock()
	if broken {
		return nil, errors.New("connection reset")
	}
	return u.Storage.Get(ctx, key)
}

func (u *unreadableStorage) heal() {
	u.mu.Lock()
	u.broken = false
	u.mu.Unlock()
}

func TestRegistry_FailedRestoreIsNotCached(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	seed, err := cart.NewStore(ctx, storage.WithPrefix(mem, "session:s1:"))
	require.NoError(t, err)
	seed.AddItem(ctx, kaftan, 2, "M", "indigo")

	st := &unreadableStorage{Storage: mem, broken: true}
	r := NewRegistry(st, time.Minute, zaptest.NewLogger(t))

	_, err = r.Get(ctx, "s1")
	require.Error(t, err)
	assert.Equal(t, 0, r.Len())

	st.heal()
	s, err := r.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, s.ItemCount())
}

func TestRegistry_RestoreIgnoresCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRegistry(storage.NewMemory(), time.Minute, zaptest.NewLogger(t))
	_, err := r.Get(ctx, "s1")

	assert.NoError(t, err)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_SweepEvictsIdleStores(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	r := NewRegistry(mem, 10*time.Minute, zaptest.NewLogger(t))
	clock := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return clock }

	idle, err := r.Get(ctx, "idle")
	require.NoError(t, err)
	idle.AddItem(ctx, kaftan, 1, "M", "indigo")
	_, err = r.Get(ctx, "active")
	require.NoError(t, err)

	clock = clock.Add(6 * time.Minute)
	_, err = r.Get(ctx, "active")
	require.NoError(t, err)

	clock = clock.Add(5 * time.Minute)
	assert.Equal(t, 1, r.Sweep())
	assert.Equal(t, 1, r.Len())

	restored, err := r.Get(ctx, "idle")
	require.NoError(t, err)
	assert.NotSame(t, idle, restored)
	assert.Equal(t, 1, restored.ItemCount(), "evicted cart comes back from storage")
}

func TestRegistry_RunSweepsUntilCancelled(t *testing.T) {
	r := NewRegistry(storage.NewMemory(), time.Minute, zaptest.NewLogger(t))
	_, err := r.Get(context.Background(), "s1")
	require.NoError(t, err)

	var mu sync.Mutex
	clock := time.Now()
	r.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return clock
	}
	mu.Lock()
	clock = clock.Add(time.Hour)
	mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return r.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
