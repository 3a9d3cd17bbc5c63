package cart_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/nikolayk812/partscart/internal/cart"
	"github.com/nikolayk812/partscart/internal/domain"
	"github.com/nikolayk812/partscart/internal/guest"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"
)

type fixture struct {
	ctx      context.Context
	manager  *cart.Manager
	carts    *memoryCarts
	catalog  *memoryCatalog
	identity *switchableIdentity
	storage  *guest.MemoryStorage
	logs     *test.Hook
}

func newFixture(t *testing.T, opts cart.Options, products ...domain.Product) *fixture {
	t.Helper()

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	f := &fixture{
		ctx:      guest.WithSession(t.Context(), gofakeit.UUID()),
		carts:    newMemoryCarts(),
		catalog:  newMemoryCatalog(products...),
		identity: &switchableIdentity{},
		storage:  guest.NewMemoryStorage(),
		logs:     hook,
	}
	f.manager = cart.NewManager(f.carts, f.catalog, f.identity, f.storage, logger, opts)

	return f
}

func (f *fixture) guestLines(t *testing.T) []domain.CartLine {
	t.Helper()

	c, err := guest.NewCartStore(f.storage).Load(f.ctx)
	require.NoError(t, err)
	return c.Lines
}

func randomProduct(price, discount string) domain.Product {
	return domain.Product{
		ID:                 uuid.MustParse(gofakeit.UUID()),
		SKU:                gofakeit.Regex(`[A-Z]{3}-[0-9]{6}`),
		Name:               gofakeit.ProductName(),
		Price:              domain.Money{Amount: decimal.RequireFromString(price), Currency: currency.USD},
		DiscountPercentage: decimal.RequireFromString(discount),
	}
}

func TestAdd_SumsQuantities(t *testing.T) {
	for _, signedIn := range []bool{false, true} {
		t.Run(map[bool]string{false: "guest", true: "signed in"}[signedIn], func(t *testing.T) {
			p := randomProduct("12.50", "0")
			f := newFixture(t, cart.Options{}, p)
			if signedIn {
				f.identity.signIn(gofakeit.UUID())
			}

			for _, qty := range []int{1, 2, 3} {
				require.NoError(t, f.manager.Add(f.ctx, p.ID, qty))
			}

			lines, err := f.manager.Lines(f.ctx)
			require.NoError(t, err)
			require.Len(t, lines, 1)
			assert.Equal(t, p.ID, lines[0].ProductID)
			assert.Equal(t, 6, lines[0].Quantity)
			assert.Equal(t, p.SKU, lines[0].Product.SKU)
		})
	}
}

func TestAdd_InvalidQuantity(t *testing.T) {
	p := randomProduct("1", "0")
	f := newFixture(t, cart.Options{}, p)

	require.ErrorIs(t, f.manager.Add(f.ctx, p.ID, 0), domain.ErrInvalidQuantity)
	require.ErrorIs(t, f.manager.Add(f.ctx, p.ID, -3), domain.ErrInvalidQuantity)
	assert.Empty(t, f.guestLines(t))
}

func TestAdd_MaxQuantity(t *testing.T) {
	for _, signedIn := range []bool{false, true} {
		t.Run(map[bool]string{false: "guest", true: "signed in"}[signedIn], func(t *testing.T) {
			p := randomProduct("1", "0")
			f := newFixture(t, cart.Options{}, p)
			if signedIn {
				f.identity.signIn(gofakeit.UUID())
			}

			require.NoError(t, f.manager.Add(f.ctx, p.ID, domain.MaxQuantity))

			err := f.manager.Add(f.ctx, p.ID, domain.MaxQuantity)
			require.ErrorIs(t, err, domain.ErrInvalidQuantity)
			assert.NotErrorIs(t, err, domain.ErrStoreWriteFailed)

			require.ErrorIs(t, f.manager.Add(f.ctx, p.ID, domain.MaxQuantity+1), domain.ErrInvalidQuantity)
			require.ErrorIs(t, f.manager.UpdateQuantity(f.ctx, p.ID, domain.MaxQuantity+1), domain.ErrInvalidQuantity)

			lines, err := f.manager.Lines(f.ctx)
			require.NoError(t, err)
			require.Len(t, lines, 1)
			assert.Equal(t, domain.MaxQuantity, lines[0].Quantity)
		})
	}
}

func TestReconcileOnSignIn_GuestLineAtMaxQuantity(t *testing.T) {
	p := randomProduct("1", "0")
	f := newFixture(t, cart.Options{Reconcile: cart.UnionPolicy}, p)

	ownerID := gofakeit.UUID()
	f.carts.put(ownerID, domain.CartLine{ProductID: p.ID, Quantity: 10, CreatedAt: time.Now()})

	require.NoError(t, f.manager.Add(f.ctx, p.ID, domain.MaxQuantity))

	f.identity.signIn(ownerID)
	require.NoError(t, f.manager.ReconcileOnSignIn(f.ctx))

	lines := f.carts.lines(ownerID)
	require.Len(t, lines, 1)
	assert.Equal(t, domain.MaxQuantity, lines[0].Quantity)
	assert.Empty(t, f.guestLines(t))
}

func TestRemove_AbsentIsNoop(t *testing.T) {
	for _, signedIn := range []bool{false, true} {
		t.Run(map[bool]string{false: "guest", true: "signed in"}[signedIn], func(t *testing.T) {
			kept := randomProduct("5", "0")
			f := newFixture(t, cart.Options{}, kept)
			if signedIn {
				f.identity.signIn(gofakeit.UUID())
			}

			require.NoError(t, f.manager.Add(f.ctx, kept.ID, 2))
			require.NoError(t, f.manager.Remove(f.ctx, uuid.MustParse(gofakeit.UUID())))

			lines, err := f.manager.Lines(f.ctx)
			require.NoError(t, err)
			require.Len(t, lines, 1)
			assert.Equal(t, 2, lines[0].Quantity)

			require.NoError(t, f.manager.Remove(f.ctx, kept.ID))
			lines, err = f.manager.Lines(f.ctx)
			require.NoError(t, err)
			assert.Empty(t, lines)
		})
	}
}

func TestUpdateQuantity(t *testing.T) {
	tests := []struct {
		name      string
		present   bool
		quantity  int
		wantLine  bool
		wantError error
	}{
		{name: "overwrite existing line: ok", present: true, quantity: 3, wantLine: true},
		{name: "absent line with positive quantity: line not found", quantity: 3, wantError: domain.ErrLineNotFound},
		{name: "zero acts as remove: ok", present: true, quantity: 0},
		{name: "negative acts as remove: ok", present: true, quantity: -1},
		{name: "zero on absent line: ok", quantity: 0},
	}

	for _, signedIn := range []bool{false, true} {
		for _, tt := range tests {
			name := map[bool]string{false: "guest/", true: "signed in/"}[signedIn] + tt.name
			t.Run(name, func(t *testing.T) {
				p := randomProduct("9.99", "10")
				f := newFixture(t, cart.Options{}, p)
				if signedIn {
					f.identity.signIn(gofakeit.UUID())
				}
				if tt.present {
					require.NoError(t, f.manager.Add(f.ctx, p.ID, 7))
				}

				err := f.manager.UpdateQuantity(f.ctx, p.ID, tt.quantity)
				if tt.wantError != nil {
					require.ErrorIs(t, err, tt.wantError)
				} else {
					require.NoError(t, err)
				}

				lines, err := f.manager.Lines(f.ctx)
				require.NoError(t, err)

				if !tt.wantLine {
					assert.Empty(t, lines)
					return
				}
				require.Len(t, lines, 1)
				assert.Equal(t, tt.quantity, lines[0].Quantity)
			})
		}
	}
}

func TestTotal(t *testing.T) {
	p1 := randomProduct("10.00", "0")
	p2 := randomProduct("50.00", "20")
	f := newFixture(t, cart.Options{}, p1, p2)

	total, err := f.manager.Total(f.ctx)
	require.NoError(t, err)
	assert.True(t, total.Amount.IsZero())
	assert.Equal(t, currency.USD.String(), total.Currency.String())

	require.NoError(t, f.manager.Add(f.ctx, p1.ID, 2))
	require.NoError(t, f.manager.Add(f.ctx, p2.ID, 1))

	total, err = f.manager.Total(f.ctx)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(60).Equal(total.Amount), "got %s", total.Amount)
}

func TestTotal_UsesLiveCatalogPrice(t *testing.T) {
	p := randomProduct("10.00", "0")
	f := newFixture(t, cart.Options{}, p)

	require.NoError(t, f.manager.Add(f.ctx, p.ID, 2))

	repriced := p
	repriced.Price.Amount = decimal.NewFromInt(15)
	f.catalog.products[p.ID] = repriced

	total, err := f.manager.Total(f.ctx)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(30).Equal(total.Amount), "got %s", total.Amount)
}

func TestLines_DropsUnresolvableProducts(t *testing.T) {
	for _, signedIn := range []bool{false, true} {
		t.Run(map[bool]string{false: "guest", true: "signed in"}[signedIn], func(t *testing.T) {
			known := randomProduct("20.00", "0")
			f := newFixture(t, cart.Options{}, known)
			if signedIn {
				f.identity.signIn(gofakeit.UUID())
			}

			gone := uuid.MustParse(gofakeit.UUID())
			require.NoError(t, f.manager.Add(f.ctx, gone, 4))
			require.NoError(t, f.manager.Add(f.ctx, known.ID, 1))

			lines, err := f.manager.Lines(f.ctx)
			require.NoError(t, err)
			require.Len(t, lines, 1)
			assert.Equal(t, known.ID, lines[0].ProductID)

			total, err := f.manager.Total(f.ctx)
			require.NoError(t, err)
			assert.True(t, decimal.NewFromInt(20).Equal(total.Amount), "got %s", total.Amount)
		})
	}
}

func TestLines_OneCatalogRoundTrip(t *testing.T) {
	products := []domain.Product{randomProduct("1", "0"), randomProduct("2", "0"), randomProduct("3", "0")}
	f := newFixture(t, cart.Options{}, products...)

	for _, p := range products {
		require.NoError(t, f.manager.Add(f.ctx, p.ID, 1))
	}

	lines, err := f.manager.Lines(f.ctx)
	require.NoError(t, err)
	require.Len(t, lines, 3)
	for i, p := range products {
		assert.Equal(t, p.ID, lines[i].ProductID, "cart order is preserved")
	}
	assert.Equal(t, 1, f.catalog.batchCount())
}

func TestLines_CatalogFailure(t *testing.T) {
	p := randomProduct("1", "0")
	f := newFixture(t, cart.Options{}, p)
	require.NoError(t, f.manager.Add(f.ctx, p.ID, 1))

	f.catalog.err = errors.New("connection refused")

	_, err := f.manager.Lines(f.ctx)
	require.ErrorIs(t, err, domain.ErrCatalogUnavailable)

	_, err = f.manager.Total(f.ctx)
	require.ErrorIs(t, err, domain.ErrCatalogUnavailable)
}

func TestGuestCart_NoPersistedStoreInteraction(t *testing.T) {
	p := randomProduct("4.20", "0")
	f := newFixture(t, cart.Options{}, p)

	require.NoError(t, f.manager.Add(f.ctx, p.ID, 2))

	lines, err := f.manager.Lines(f.ctx)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)

	require.NoError(t, f.manager.Clear(f.ctx))
	assert.Empty(t, f.guestLines(t))

	assert.Zero(t, f.carts.callCount())
}

func TestClear(t *testing.T) {
	p := randomProduct("4.20", "0")
	f := newFixture(t, cart.Options{}, p)
	ownerID := gofakeit.UUID()
	f.identity.signIn(ownerID)

	require.NoError(t, f.manager.Clear(f.ctx), "clearing an empty cart succeeds")

	require.NoError(t, f.manager.Add(f.ctx, p.ID, 2))
	require.NoError(t, f.manager.Clear(f.ctx))
	assert.Empty(t, f.carts.lines(ownerID))
}

func TestReconcileOnSignIn_Overwrite(t *testing.T) {
	pA := randomProduct("1", "0")
	pB := randomProduct("2", "0")
	f := newFixture(t, cart.Options{}, pA, pB)

	ownerID := gofakeit.UUID()
	f.carts.put(ownerID, domain.CartLine{ProductID: pB.ID, Quantity: 5, CreatedAt: time.Now()})

	require.NoError(t, f.manager.Add(f.ctx, pA.ID, 1))

	f.identity.signIn(ownerID)
	require.NoError(t, f.manager.ReconcileOnSignIn(f.ctx))

	lines := f.carts.lines(ownerID)
	require.Len(t, lines, 1)
	assert.Equal(t, pA.ID, lines[0].ProductID)
	assert.Equal(t, 1, lines[0].Quantity)

	assert.Empty(t, f.guestLines(t))
}

func TestReconcileOnSignIn_Union(t *testing.T) {
	pA := randomProduct("1", "0")
	pB := randomProduct("2", "0")
	f := newFixture(t, cart.Options{Reconcile: cart.UnionPolicy}, pA, pB)

	ownerID := gofakeit.UUID()
	f.carts.put(ownerID,
		domain.CartLine{ProductID: pB.ID, Quantity: 5, CreatedAt: time.Now()},
		domain.CartLine{ProductID: pA.ID, Quantity: 2, CreatedAt: time.Now()},
	)

	require.NoError(t, f.manager.Add(f.ctx, pA.ID, 1))

	f.identity.signIn(ownerID)
	require.NoError(t, f.manager.ReconcileOnSignIn(f.ctx))

	lines, err := f.manager.Lines(f.ctx)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, pB.ID, lines[0].ProductID)
	assert.Equal(t, 5, lines[0].Quantity)
	assert.Equal(t, pA.ID, lines[1].ProductID)
	assert.Equal(t, 3, lines[1].Quantity)
}

func TestReconcileOnSignIn_EmptyGuestCartIsNoop(t *testing.T) {
	pB := randomProduct("2", "0")
	f := newFixture(t, cart.Options{}, pB)

	ownerID := gofakeit.UUID()
	f.carts.put(ownerID, domain.CartLine{ProductID: pB.ID, Quantity: 5})
	f.identity.signIn(ownerID)

	notified := 0
	f.manager.Subscribe(func() { notified++ })

	require.NoError(t, f.manager.ReconcileOnSignIn(f.ctx))

	assert.Len(t, f.carts.lines(ownerID), 1)
	assert.Zero(t, notified)
}

func TestReconcileOnSignIn_RequiresIdentity(t *testing.T) {
	p := randomProduct("2", "0")
	f := newFixture(t, cart.Options{}, p)
	require.NoError(t, f.manager.Add(f.ctx, p.ID, 1))

	require.ErrorIs(t, f.manager.ReconcileOnSignIn(f.ctx), domain.ErrNotSignedIn)
	assert.Len(t, f.guestLines(t), 1)
}

func TestReconcileOnSignIn_FailureKeepsBothCarts(t *testing.T) {
	pA := randomProduct("1", "0")
	pB := randomProduct("2", "0")
	f := newFixture(t, cart.Options{}, pA, pB)

	ownerID := gofakeit.UUID()
	f.carts.put(ownerID, domain.CartLine{ProductID: pB.ID, Quantity: 5})
	require.NoError(t, f.manager.Add(f.ctx, pA.ID, 1))

	f.identity.signIn(ownerID)
	f.carts.writeErr = errors.New("serialization failure")

	err := f.manager.ReconcileOnSignIn(f.ctx)
	require.ErrorIs(t, err, domain.ErrStoreWriteFailed)

	lines := f.carts.lines(ownerID)
	require.Len(t, lines, 1)
	assert.Equal(t, pB.ID, lines[0].ProductID)
	assert.Len(t, f.guestLines(t), 1)
}

func TestIdentityUnavailable_FailsClosed(t *testing.T) {
	p := randomProduct("2", "0")
	f := newFixture(t, cart.Options{}, p)
	f.identity.fail(errors.New("auth provider down"))

	require.ErrorIs(t, f.manager.Add(f.ctx, p.ID, 1), domain.ErrIdentityUnavailable)
	require.ErrorIs(t, f.manager.Remove(f.ctx, p.ID), domain.ErrIdentityUnavailable)
	require.ErrorIs(t, f.manager.UpdateQuantity(f.ctx, p.ID, 2), domain.ErrIdentityUnavailable)
	require.ErrorIs(t, f.manager.Clear(f.ctx), domain.ErrIdentityUnavailable)
	require.ErrorIs(t, f.manager.ReconcileOnSignIn(f.ctx), domain.ErrIdentityUnavailable)

	_, err := f.manager.Lines(f.ctx)
	require.ErrorIs(t, err, domain.ErrIdentityUnavailable)

	assert.Empty(t, f.guestLines(t))
	assert.Zero(t, f.carts.callCount())
}

func TestStoreWriteFailure_LeavesStateUntouched(t *testing.T) {
	p := randomProduct("2", "0")
	f := newFixture(t, cart.Options{}, p)
	ownerID := gofakeit.UUID()
	f.identity.signIn(ownerID)

	require.NoError(t, f.manager.Add(f.ctx, p.ID, 2))

	f.carts.writeErr = errors.New("disk full")
	require.ErrorIs(t, f.manager.Add(f.ctx, p.ID, 1), domain.ErrStoreWriteFailed)
	require.ErrorIs(t, f.manager.UpdateQuantity(f.ctx, p.ID, 9), domain.ErrStoreWriteFailed)

	lines := f.carts.lines(ownerID)
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
}

func TestGuestWithoutSession_WriteFails(t *testing.T) {
	p := randomProduct("2", "0")
	f := newFixture(t, cart.Options{}, p)

	err := f.manager.Add(t.Context(), p.ID, 1)
	require.ErrorIs(t, err, domain.ErrStoreWriteFailed)
	require.ErrorIs(t, err, guest.ErrNoSession)

	lines, err := f.manager.Lines(t.Context())
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestTimeout(t *testing.T) {
	p := randomProduct("2", "0")

	logger, _ := test.NewNullLogger()
	manager := cart.NewManager(newMemoryCarts(), newMemoryCatalog(p), hangingIdentity{}, guest.NewMemoryStorage(), logger,
		cart.Options{Timeout: 20 * time.Millisecond})

	ctx := guest.WithSession(t.Context(), gofakeit.UUID())

	err := manager.Add(ctx, p.ID, 1)
	require.ErrorIs(t, err, domain.ErrTimeout)
	require.ErrorIs(t, err, domain.ErrIdentityUnavailable)

	_, err = manager.Total(ctx)
	require.ErrorIs(t, err, domain.ErrTimeout)
}

func TestSummary(t *testing.T) {
	p := randomProduct("30.00", "0")
	f := newFixture(t, cart.Options{FreeShippingThreshold: domain.Money{Amount: decimal.NewFromInt(100)}}, p)

	require.NoError(t, f.manager.Add(f.ctx, p.ID, 3))

	summary, err := f.manager.Summary(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.ItemCount)
	assert.False(t, summary.FreeShipping)
	assert.True(t, decimal.NewFromInt(10).Equal(summary.RemainingForFreeShipping.Amount))

	require.NoError(t, f.manager.Add(f.ctx, p.ID, 1))

	summary, err = f.manager.Summary(f.ctx)
	require.NoError(t, err)
	assert.True(t, summary.FreeShipping)
}

func TestSubscribe(t *testing.T) {
	p := randomProduct("2", "0")
	f := newFixture(t, cart.Options{}, p)

	var first, second int
	unsubscribe := f.manager.Subscribe(func() { first++ })
	f.manager.Subscribe(func() { panic("broken subscriber") })
	f.manager.Subscribe(func() { second++ })

	require.NoError(t, f.manager.Add(f.ctx, p.ID, 1))
	require.NoError(t, f.manager.UpdateQuantity(f.ctx, p.ID, 4))
	assert.Equal(t, 2, first)
	assert.Equal(t, 2, second)

	// failed mutations do not notify
	require.ErrorIs(t, f.manager.UpdateQuantity(f.ctx, uuid.MustParse(gofakeit.UUID()), 1), domain.ErrLineNotFound)
	assert.Equal(t, 2, first)

	unsubscribe()
	unsubscribe()

	require.NoError(t, f.manager.Remove(f.ctx, p.ID))
	assert.Equal(t, 2, first)
	assert.Equal(t, 3, second)

	var warned bool
	for _, entry := range f.logs.AllEntries() {
		if entry.Level == logrus.WarnLevel && entry.Message == "cart change subscriber panicked" {
			warned = true
		}
	}
	assert.True(t, warned)
}
