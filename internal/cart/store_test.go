package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/uwenvati/omotailor/internal/domain"
	"github.com/uwenvati/omotailor/internal/pricing"
	"github.com/uwenvati/omotailor/internal/storage"
)

func money(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func assertMoney(t *testing.T, want int64, got decimal.Decimal) {
	t.Helper()
	assert.True(t, got.Equal(money(want)), "expected %d, got %s", want, got)
}

func agbada() domain.ProductRef {
	return domain.ProductRef{
		ID:    "1",
		Name:  "Imperial Agbada Royale",
		Price: money(75000),
		Image: "/assets/images/agbada.jpeg",
		SKU:   "OMO-AGB-001",
	}
}

func kaftan() domain.ProductRef {
	sale := money(18000)
	return domain.ProductRef{
		ID:        "2",
		Name:      "Indigo Adire Kaftan",
		Price:     money(20000),
		SalePrice: &sale,
		Image:     "/assets/images/kaftan.jpeg",
		SKU:       "OMO-KAF-002",
	}
}

func newTestStore(t *testing.T) (*Store, *storage.Memory) {
	t.Helper()
	mem := storage.NewMemory()
	return mustNewStore(t, mem), mem
}

func mustNewStore(t *testing.T, st storage.Storage, opts ...Option) *Store {
	t.Helper()
	s, err := NewStore(context.Background(), st, opts...)
	require.NoError(t, err)
	return s
}

func TestAddItem_SameKeyMerges(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	s.AddItem(ctx, agbada(), 1, "L", "midnight-blue")
	s.AddItem(ctx, agbada(), 2, "L", "midnight-blue")
	s.AddItem(ctx, agbada(), 4, "L", "midnight-blue")

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 7, items[0].Quantity)
	assert.Equal(t, "OMO-AGB-001", items[0].SKU)
	assert.Equal(t, 7, s.ItemCount())
}

func TestAddItem_DistinctKeysNeverMerge(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	s.AddItem(ctx, agbada(), 1, "L", "midnight-blue")
	s.AddItem(ctx, agbada(), 1, "XL", "midnight-blue")
	s.AddItem(ctx, agbada(), 1, "L", "forest-green")

	items := s.Items()
	require.Len(t, items, 3)
	for _, item := range items {
		assert.Equal(t, "1", item.ProductID)
		assert.Equal(t, 1, item.Quantity)
	}
}

func TestRemoveItem_ThenAddStartsFresh(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	key := domain.LineKey{ProductID: "1", Size: "L", Color: "midnight-blue"}

	s.AddItem(ctx, agbada(), 5, "L", "midnight-blue")
	s.RemoveItem(ctx, key)
	assert.True(t, s.IsEmpty())

	s.AddItem(ctx, agbada(), 2, "L", "midnight-blue")
	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestRemoveItem_AbsentKeyIsNoop(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	s.AddItem(ctx, agbada(), 1, "L", "midnight-blue")
	s.RemoveItem(ctx, domain.LineKey{ProductID: "1", Size: "M", Color: "midnight-blue"})

	assert.Len(t, s.Items(), 1)
}

func TestUpdateQuantity(t *testing.T) {
	key := domain.LineKey{ProductID: "1", Size: "L", Color: "midnight-blue"}

	tests := []struct {
		name      string
		quantity  int
		wantItems int
		wantQty   int
	}{
		{name: "positive sets exactly", quantity: 9, wantItems: 1, wantQty: 9},
		{name: "zero removes", quantity: 0, wantItems: 0},
		{name: "negative removes", quantity: -3, wantItems: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s, _ := newTestStore(t)
			s.AddItem(ctx, agbada(), 2, "L", "midnight-blue")

			s.UpdateQuantity(ctx, key, tt.quantity)

			items := s.Items()
			require.Len(t, items, tt.wantItems)
			if tt.wantItems > 0 {
				assert.Equal(t, tt.wantQty, items[0].Quantity)
			}
		})
	}
}

func TestUpdateQuantity_AbsentKeyIsNoop(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	s.UpdateQuantity(ctx, domain.LineKey{ProductID: "9"}, 3)
	assert.True(t, s.IsEmpty())
}

func TestApplyPromoCode(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	assert.True(t, s.ApplyPromoCode(ctx, " save20 "))
	promo, ok := s.Promo()
	require.True(t, ok)
	assert.Equal(t, "SAVE20", promo.Code)

	assert.True(t, s.ApplyPromoCode(ctx, "SAVE10"))
	promo, _ = s.Promo()
	assert.Equal(t, "SAVE10", promo.Code)
}

func TestApplyPromoCode_UnknownLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	require.True(t, s.ApplyPromoCode(ctx, "SAVE20"))
	assert.False(t, s.ApplyPromoCode(ctx, "NOPE"))

	promo, ok := s.Promo()
	require.True(t, ok)
	assert.Equal(t, "SAVE20", promo.Code)
}

func TestRemovePromoCode(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestStore(t)

	require.True(t, s.ApplyPromoCode(ctx, "SAVE20"))
	s.RemovePromoCode(ctx)

	_, ok := s.Promo()
	assert.False(t, ok)
	_, err := mem.Get(ctx, PromoKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// removing again is harmless
	s.RemovePromoCode(ctx)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	s.AddItem(ctx, agbada(), 2, "L", "midnight-blue")
	s.AddItem(ctx, kaftan(), 1, "M", "indigo")
	require.True(t, s.ApplyPromoCode(ctx, "SAVE20"))

	s.Clear(ctx)

	assert.Empty(t, s.Items())
	_, ok := s.Promo()
	assert.False(t, ok)
	assert.Equal(t, 0, s.ItemCount())
}

func TestTotals_WithPromoAndFreeShipping(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	s.AddItem(ctx, agbada(), 1, "L", "midnight-blue")
	require.True(t, s.ApplyPromoCode(ctx, "SAVE20"))

	assertMoney(t, 75000, s.Subtotal())
	assertMoney(t, 15000, s.DiscountAmount())
	assertMoney(t, 0, s.ShippingCost())
	assertMoney(t, 60000, s.Total())
}

func TestTotals_FlatShipping(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	s.AddItem(ctx, domain.ProductRef{ID: "3", Name: "Senator", Price: money(20000)}, 1, "M", "charcoal")

	assertMoney(t, 20000, s.Subtotal())
	assertMoney(t, 5000, s.ShippingCost())
	assertMoney(t, 25000, s.Total())
}

func TestTotals_UseSalePrice(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	s.AddItem(ctx, kaftan(), 3, "M", "indigo")

	assertMoney(t, 54000, s.Subtotal())
	assertMoney(t, 0, s.ShippingCost())
}

func TestItemsReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	s.AddItem(ctx, agbada(), 1, "L", "midnight-blue")

	items := s.Items()
	items[0].Quantity = 100

	assert.Equal(t, 1, s.Items()[0].Quantity)
}

func TestPersistence_RoundTrip(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()

	first := mustNewStore(t, mem)
	first.AddItem(ctx, agbada(), 2, "L", "midnight-blue")
	first.AddItem(ctx, kaftan(), 1, "M", "indigo")
	require.True(t, first.ApplyPromoCode(ctx, "save10"))

	second := mustNewStore(t, mem)
	items := second.Items()
	require.Len(t, items, 2)
	for i, item := range first.Items() {
		assert.Equal(t, item.Key(), items[i].Key())
		assert.Equal(t, item.Quantity, items[i].Quantity)
		assert.True(t, item.EffectivePrice().Equal(items[i].EffectivePrice()))
	}
	promo, ok := second.Promo()
	require.True(t, ok)
	assert.Equal(t, "SAVE10", promo.Code)
	assert.True(t, first.Total().Equal(second.Total()))
}

func TestPersistence_ClearWritesEmptyState(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()

	s := mustNewStore(t, mem)
	s.AddItem(ctx, agbada(), 1, "L", "midnight-blue")
	require.True(t, s.ApplyPromoCode(ctx, "SAVE20"))
	s.Clear(ctx)

	raw, err := mem.Get(ctx, ItemsKey)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))
	_, err = mem.Get(ctx, PromoKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	restored := mustNewStore(t, mem)
	assert.True(t, restored.IsEmpty())
}

func TestRestore_MalformedDataStartsEmpty(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	require.NoError(t, mem.Set(ctx, ItemsKey, []byte(`[{"id": "1", "quantity": `)))
	require.NoError(t, mem.Set(ctx, PromoKey, []byte(`not json`)))

	core, logs := observer.New(zapcore.WarnLevel)
	s := mustNewStore(t, mem, WithLogger(zap.New(core)))

	assert.True(t, s.IsEmpty())
	_, ok := s.Promo()
	assert.False(t, ok)
	assert.Equal(t, 2, logs.FilterMessage("discarding malformed cart state").Len())
}

func TestRestore_NormalizesStoredItems(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	stored := `[
		{"id":"1","name":"Agbada","price":"75000","size":"L","color":"blue","quantity":1},
		{"id":"1","name":"Agbada","price":"75000","size":"L","color":"blue","quantity":2},
		{"id":"2","name":"Kaftan","price":"20000","size":"M","color":"indigo","quantity":0}
	]`
	require.NoError(t, mem.Set(ctx, ItemsKey, []byte(stored)))

	s := mustNewStore(t, mem)

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
}

func TestRestore_DiscardsRetiredPromo(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	require.NoError(t, mem.Set(ctx, PromoKey, []byte(`{"code":"BLACKFRIDAY","discount":"0.5"}`)))

	core, logs := observer.New(zapcore.WarnLevel)
	s := mustNewStore(t, mem, WithLogger(zap.New(core)))

	_, ok := s.Promo()
	assert.False(t, ok)
	assert.Equal(t, 1, logs.FilterMessage("discarding stored promo code").Len())
}

func TestRestore_UsesCurrentDiscountForStoredCode(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	require.NoError(t, mem.Set(ctx, PromoKey, []byte(`{"code":"SAVE20","discount":"0.9"}`)))

	s := mustNewStore(t, mem)

	promo, ok := s.Promo()
	require.True(t, ok)
	assert.True(t, promo.Discount.Equal(decimal.RequireFromString("0.2")))
}

type failingStorage struct {
	err error
}

func (f failingStorage) Get(context.Context, string) ([]byte, error) { return nil, f.err }
func (f failingStorage) Set(context.Context, string, []byte) error   { return f.err }
func (f failingStorage) Remove(context.Context, string) error        { return f.err }

func TestWriteFailuresAreNotSurfaced(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zapcore.WarnLevel)

	s := mustNewStore(t, storage.NewMemory(), WithLogger(zap.New(core)))
	s.storage = failingStorage{err: errors.New("disk on fire")}

	s.AddItem(ctx, agbada(), 1, "L", "midnight-blue")
	require.True(t, s.ApplyPromoCode(ctx, "SAVE20"))
	s.Clear(ctx)

	assert.True(t, s.IsEmpty())
	// every mutation writes the items key and either writes or removes the promo key
	assert.Equal(t, 4, logs.FilterMessage("failed to persist cart state").Len())
	assert.Equal(t, 2, logs.FilterMessage("failed to remove promo state").Len())
}

func TestRestore_ReadFailureIsReturned(t *testing.T) {
	boom := errors.New("connection reset")

	s, err := NewStore(context.Background(), failingStorage{err: boom})

	assert.ErrorIs(t, err, boom)
	assert.Nil(t, s)
}

// flakyStorage fails its next `failures` reads, then delegates to the wrapped storage.
type flakyStorage struct {
	storage.Storage
	failures int
}

func (f *flakyStorage) Get(ctx context.Context, key string) ([]byte, error) {
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("i/o timeout")
	}
	return f.Storage.Get(ctx, key)
}

func TestRestore_ReadFailureKeepsPersistedCart(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	first := mustNewStore(t, mem)
	first.AddItem(ctx, agbada(), 2, "L", "midnight-blue")

	flaky := &flakyStorage{Storage: mem, failures: 1}
	_, err := NewStore(ctx, flaky)
	require.Error(t, err)

	retried := mustNewStore(t, flaky)
	retried.AddItem(ctx, kaftan(), 1, "M", "indigo")

	restored := mustNewStore(t, mem)
	assert.Len(t, restored.Items(), 2)
	assert.Equal(t, 3, restored.ItemCount())
}

func TestPersist_WritesBothKeysOnEveryMutation(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	s := mustNewStore(t, mem)
	require.True(t, s.ApplyPromoCode(ctx, "SAVE10"))

	require.NoError(t, mem.Remove(ctx, PromoKey))
	s.AddItem(ctx, agbada(), 1, "L", "midnight-blue")

	_, err := mem.Get(ctx, PromoKey)
	assert.NoError(t, err, "an item write must refresh the promo key too")
}

func TestCheckout_ClearsOnlyOnSuccess(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestStore(t)
	s.AddItem(ctx, agbada(), 1, "L", "midnight-blue")
	require.True(t, s.ApplyPromoCode(ctx, "SAVE20"))

	boom := errors.New("order store down")
	err := s.Checkout(ctx, func(pricing.Summary) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, s.ItemCount())

	var placed pricing.Summary
	require.NoError(t, s.Checkout(ctx, func(summary pricing.Summary) error {
		placed = summary
		return nil
	}))
	assertMoney(t, 60000, placed.Total)
	require.NotNil(t, placed.Promo)
	assert.True(t, s.IsEmpty())

	raw, err := mem.Get(ctx, ItemsKey)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))
}

func TestCheckout_ConcurrentAddIsNotLost(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	s.AddItem(ctx, agbada(), 1, "L", "midnight-blue")

	done := make(chan struct{})
	var placed pricing.Summary
	require.NoError(t, s.Checkout(ctx, func(summary pricing.Summary) error {
		placed = summary
		go func() {
			defer close(done)
			s.AddItem(ctx, kaftan(), 1, "M", "indigo")
		}()
		return nil
	}))
	<-done

	require.Len(t, placed.Items, 1)
	assert.Equal(t, "1", placed.Items[0].ProductID)
	items := s.Items()
	require.Len(t, items, 1, "the line added during checkout must stay in the cart")
	assert.Equal(t, "2", items[0].ProductID)
}
