// Package cart is the single entry point for reading and mutating a shopper's
// cart. It hides whether the cart lives in guest storage or in the persisted
// cart store, and prices lines from the live catalog on every read.
package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/partscart/internal/domain"
	"github.com/nikolayk812/partscart/internal/guest"
	"github.com/nikolayk812/partscart/internal/port"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/currency"
)

const DefaultTimeout = 5 * time.Second

type Options struct {
	// Timeout bounds every operation, including the identity check. Defaults to DefaultTimeout.
	Timeout time.Duration
	// Currency of an empty cart's total. Defaults to USD.
	Currency currency.Unit
	// FreeShippingThreshold disables the free-shipping summary when not positive.
	// A threshold without a currency is taken to be in Currency.
	FreeShippingThreshold domain.Money
	// Reconcile defaults to OverwritePolicy.
	Reconcile ReconcilePolicy
}

type Manager struct {
	carts    port.CartRepository
	catalog  port.CatalogRepository
	identity port.IdentityProvider
	guests   *guest.CartStore
	notifier *notifier
	log      *logrus.Logger
	opts     Options
	now      func() time.Time
}

func NewManager(
	carts port.CartRepository,
	catalog port.CatalogRepository,
	identity port.IdentityProvider,
	guestStorage port.GuestStorage,
	log *logrus.Logger,
	opts Options,
) *Manager {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Currency == (currency.Unit{}) {
		opts.Currency = currency.USD
	}
	if opts.FreeShippingThreshold.Currency == (currency.Unit{}) {
		opts.FreeShippingThreshold.Currency = opts.Currency
	}
	if opts.Reconcile == nil {
		opts.Reconcile = OverwritePolicy
	}

	return &Manager{
		carts:    carts,
		catalog:  catalog,
		identity: identity,
		guests:   guest.NewCartStore(guestStorage),
		notifier: newNotifier(log),
		log:      log,
		opts:     opts,
		now:      time.Now,
	}
}

// Subscribe registers fn to be called synchronously after every successful
// mutation. The returned function unsubscribes and is safe to call twice.
func (m *Manager) Subscribe(fn func()) (unsubscribe func()) {
	return m.notifier.subscribe(fn)
}

// Add grows the cart: it inserts the line or increments its quantity. An
// increment that would take the line past domain.MaxQuantity is rejected.
func (m *Manager) Add(ctx context.Context, productID uuid.UUID, quantity int) error {
	if quantity < 1 || quantity > domain.MaxQuantity {
		return domain.ErrInvalidQuantity
	}

	ctx, cancel := context.WithTimeout(ctx, m.opts.Timeout)
	defer cancel()

	id, err := m.currentIdentity(ctx)
	if err != nil {
		return err
	}

	if id.IsGuest() {
		err = m.mutateGuest(ctx, func(c *domain.Cart) error {
			return c.Add(productID, quantity, m.now())
		})
	} else {
		err = m.carts.AddQuantity(ctx, id.ID, productID, quantity)
		switch {
		case errors.Is(err, domain.ErrInvalidQuantity):
			err = fmt.Errorf("carts.AddQuantity: %w", err)
		case err != nil:
			err = writeFailed("carts.AddQuantity", err)
		}
	}
	if err != nil {
		return classify(err)
	}

	m.logger(id, productID).WithField("quantity", quantity).Debug("cart line added")
	m.notifier.publish()

	return nil
}

// Remove succeeds when the product is not in the cart.
func (m *Manager) Remove(ctx context.Context, productID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, m.opts.Timeout)
	defer cancel()

	id, err := m.currentIdentity(ctx)
	if err != nil {
		return err
	}

	if err := m.remove(ctx, id, productID); err != nil {
		return classify(err)
	}

	m.logger(id, productID).Debug("cart line removed")
	m.notifier.publish()

	return nil
}

// UpdateQuantity overwrites the quantity of an existing line; it never creates
// one. A quantity <= 0 removes the line.
func (m *Manager) UpdateQuantity(ctx context.Context, productID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return m.Remove(ctx, productID)
	}
	if quantity > domain.MaxQuantity {
		return domain.ErrInvalidQuantity
	}

	ctx, cancel := context.WithTimeout(ctx, m.opts.Timeout)
	defer cancel()

	id, err := m.currentIdentity(ctx)
	if err != nil {
		return err
	}

	if id.IsGuest() {
		err = m.mutateGuest(ctx, func(c *domain.Cart) error {
			return c.SetQuantity(productID, quantity)
		})
	} else {
		var updated bool
		updated, err = m.carts.SetQuantity(ctx, id.ID, productID, quantity)
		switch {
		case err != nil:
			err = writeFailed("carts.SetQuantity", err)
		case !updated:
			err = domain.ErrLineNotFound
		}
	}
	if err != nil {
		return classify(err)
	}

	m.logger(id, productID).WithField("quantity", quantity).Debug("cart line updated")
	m.notifier.publish()

	return nil
}

// Lines returns the cart lines that still resolve in the catalog, in cart order.
func (m *Manager) Lines(ctx context.Context) ([]domain.Line, error) {
	ctx, cancel := context.WithTimeout(ctx, m.opts.Timeout)
	defer cancel()

	lines, err := m.lines(ctx)
	if err != nil {
		return nil, classify(err)
	}

	return lines, nil
}

// Total is the CartTotal over Lines at current catalog prices.
func (m *Manager) Total(ctx context.Context) (domain.Money, error) {
	lines, err := m.Lines(ctx)
	if err != nil {
		return domain.Money{}, err
	}

	return domain.CartTotal(lines, m.opts.Currency)
}

func (m *Manager) Summary(ctx context.Context) (domain.Summary, error) {
	lines, err := m.Lines(ctx)
	if err != nil {
		return domain.Summary{}, err
	}

	return domain.Summarize(lines, m.opts.Currency, m.opts.FreeShippingThreshold)
}

func (m *Manager) Clear(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.opts.Timeout)
	defer cancel()

	id, err := m.currentIdentity(ctx)
	if err != nil {
		return err
	}

	if id.IsGuest() {
		err = m.guests.Clear(ctx)
		if err != nil {
			err = writeFailed("guests.Clear", err)
		}
	} else {
		err = m.carts.ClearCart(ctx, id.ID)
		if err != nil {
			err = writeFailed("carts.ClearCart", err)
		}
	}
	if err != nil {
		return classify(err)
	}

	m.logger(id, uuid.Nil).Debug("cart cleared")
	m.notifier.publish()

	return nil
}

// ReconcileOnSignIn moves the guest cart into the signed-in shopper's cart
// using the configured ReconcilePolicy. The caller owning the sign-in event
// calls it once per sign-in. If the persisted cart cannot be rewritten it is
// left untouched and the guest cart is kept.
func (m *Manager) ReconcileOnSignIn(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.opts.Timeout)
	defer cancel()

	id, err := m.currentIdentity(ctx)
	if err != nil {
		return err
	}
	if id.IsGuest() {
		return domain.ErrNotSignedIn
	}

	guestCart, err := m.guests.Load(ctx)
	if err != nil {
		return classify(readFailed("guests.Load", err))
	}
	if guestCart.IsEmpty() {
		return nil
	}

	err = m.carts.MergeCart(ctx, id.ID, func(existing []domain.CartLine) []domain.CartLine {
		return m.opts.Reconcile(existing, guestCart.Lines)
	})
	if err != nil {
		return classify(writeFailed("carts.MergeCart", err))
	}

	// The persisted cart is committed at this point; a failure leaves the guest lines in place.
	if err := m.guests.Clear(ctx); err != nil {
		return classify(writeFailed("guests.Clear", err))
	}

	m.logger(id, uuid.Nil).WithField("lines", len(guestCart.Lines)).Info("guest cart reconciled")
	m.notifier.publish()

	return nil
}

func (m *Manager) lines(ctx context.Context) ([]domain.Line, error) {
	cart, err := m.loadCart(ctx)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return []domain.Line{}, nil
	}

	products, err := m.catalog.GetProducts(ctx, cart.ProductIDs())
	if err != nil {
		if !errors.Is(err, domain.ErrCatalogUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrCatalogUnavailable, err)
		}
		return nil, fmt.Errorf("catalog.GetProducts: %w", err)
	}

	lines := make([]domain.Line, 0, len(cart.Lines))
	for _, cartLine := range cart.Lines {
		product, ok := products[cartLine.ProductID]
		if !ok {
			m.log.WithField("product_id", cartLine.ProductID).Debug("dropping cart line for unresolvable product")
			continue
		}
		lines = append(lines, domain.Line{CartLine: cartLine, Product: product})
	}

	return lines, nil
}

func (m *Manager) loadCart(ctx context.Context) (domain.Cart, error) {
	id, err := m.currentIdentity(ctx)
	if err != nil {
		return domain.Cart{}, err
	}

	if id.IsGuest() {
		cart, err := m.guests.Load(ctx)
		if err != nil {
			return domain.Cart{}, readFailed("guests.Load", err)
		}
		return cart, nil
	}

	cart, err := m.carts.GetCart(ctx, id.ID)
	if err != nil {
		return domain.Cart{}, readFailed("carts.GetCart", err)
	}

	return cart, nil
}

func (m *Manager) remove(ctx context.Context, id domain.Identity, productID uuid.UUID) error {
	if id.IsGuest() {
		return m.mutateGuest(ctx, func(c *domain.Cart) error {
			c.Remove(productID)
			return nil
		})
	}

	if _, err := m.carts.DeleteLine(ctx, id.ID, productID); err != nil {
		return writeFailed("carts.DeleteLine", err)
	}

	return nil
}

// mutateGuest is read-modify-write on the guest document; fn errors are returned as is.
func (m *Manager) mutateGuest(ctx context.Context, fn func(c *domain.Cart) error) error {
	cart, err := m.guests.Load(ctx)
	if err != nil {
		return readFailed("guests.Load", err)
	}

	if err := fn(&cart); err != nil {
		return err
	}

	if err := m.guests.Save(ctx, cart); err != nil {
		return writeFailed("guests.Save", err)
	}

	return nil
}

// currentIdentity fails closed: a broken identity check never degrades to a guest cart.
func (m *Manager) currentIdentity(ctx context.Context) (domain.Identity, error) {
	id, err := m.identity.CurrentIdentity(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrIdentityUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrIdentityUnavailable, err)
		}
		return domain.Identity{}, classify(err)
	}

	return id, nil
}

func (m *Manager) logger(id domain.Identity, productID uuid.UUID) *logrus.Entry {
	fields := logrus.Fields{"guest": id.IsGuest()}
	if !id.IsGuest() {
		fields["owner"] = id.ID
	}
	if productID != uuid.Nil {
		fields["product_id"] = productID
	}
	return m.log.WithFields(fields)
}

func writeFailed(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrStoreWriteFailed, op, err)
}

func readFailed(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrStoreReadFailed, op, err)
}

func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, domain.ErrTimeout) {
		return fmt.Errorf("%w: %w", domain.ErrTimeout, err)
	}
	return err
}
