package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fadl200/suaqiraq-sub000/internal/modules/cart/checkout"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/cart/domain"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/cart/repository"
	catalog "github.com/fadl200/suaqiraq-sub000/internal/modules/catalog/domain"
	catalogrepo "github.com/fadl200/suaqiraq-sub000/internal/modules/catalog/repository"
	catalogservice "github.com/fadl200/suaqiraq-sub000/internal/modules/catalog/service"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/shared/apperrors"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/shared/kvstore"
	"github.com/gaborage/go-bricks/logger"
	"github.com/jonboulle/clockwork"
)

const cartID = "visitor-1"

func newMockLogger() logger.Logger {
	return logger.New("info", false)
}

type fixture struct {
	svc      *CartService
	snapshot *catalogrepo.Snapshot
	store    *kvstore.MemoryStore
	channel  *checkout.WhatsAppChannel
}

func newFixture() *fixture {
	log := newMockLogger()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC))
	snapshot := catalogrepo.NewSnapshot(catalogrepo.Data{
		Sellers: []catalog.Seller{
			{ID: "s1", Name: "Baghdad Dates", Phone: "07701234567"},
			{ID: "s2", Name: "Erbil Honey", Phone: "07509876543"},
		},
		Products: []catalog.Product{
			{ID: "A", SellerID: "s1", Name: "Barhi dates", Price: 1000},
			{ID: "B", SellerID: "s2", Name: "Mountain honey", Price: 500},
			{ID: "C", SellerID: "s1", Name: "Date syrup", Price: 250},
			{ID: "O", SellerID: "ghost", Name: "Orphan", Price: 99},
		},
	})
	lookup := catalogservice.NewService(snapshot, nil, log, clock)
	store := kvstore.NewMemoryStore()
	ch := checkout.NewWhatsAppChannel("https://wa.me/")

	svc := NewService(repository.NewKVRepository(store), lookup, func() checkout.Channel { return ch }, clock, log)
	return &fixture{svc: svc, snapshot: snapshot, store: store, channel: ch}
}

func (f *fixture) mustAdd(t *testing.T, productID string, qty int) {
	t.Helper()
	if _, err := f.svc.AddItem(context.Background(), cartID, productID, qty); err != nil {
		t.Fatalf("AddItem(%s, %d) error = %v", productID, qty, err)
	}
}

func TestAddItem(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		productID string
		qty       int
		wantErr   error
	}{
		{name: "known product", productID: "A", qty: 1},
		{name: "unknown product", productID: "missing", qty: 1, wantErr: apperrors.ErrNotFound},
		{name: "zero quantity", productID: "A", qty: 0, wantErr: apperrors.ErrValidation},
		{name: "negative quantity", productID: "A", qty: -2, wantErr: apperrors.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			items, err := f.svc.AddItem(ctx, cartID, tt.productID, tt.qty)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("AddItem() error = %v, want %v", err, tt.wantErr)
				}
				if n, _ := f.svc.ItemCount(ctx, cartID); n != 0 {
					t.Errorf("cart changed after failed AddItem(): %d items", n)
				}
				return
			}
			if err != nil {
				t.Fatalf("AddItem() unexpected error = %v", err)
			}
			if len(items) != 1 || items[0].SellerID != "s1" || items[0].AddedAt.IsZero() {
				t.Errorf("AddItem() items = %+v", items)
			}
		})
	}
}

func TestAddItemIsAdditive(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.mustAdd(t, "A", 1)
	f.mustAdd(t, "A", 2)

	items, _ := f.svc.Items(ctx, cartID)
	if len(items) != 1 || items[0].Quantity != 3 {
		t.Errorf("Items() = %+v, want one line with quantity 3", items)
	}
}

func TestTotalAndItemCount(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.mustAdd(t, "A", 2)
	f.mustAdd(t, "B", 3)

	total, err := f.svc.Total(ctx, cartID)
	if err != nil || total != 3500 {
		t.Errorf("Total() = %d, %v, want 3500", total, err)
	}
	count, err := f.svc.ItemCount(ctx, cartID)
	if err != nil || count != 5 {
		t.Errorf("ItemCount() = %d, %v, want 5", count, err)
	}
}

func TestTotalUsesLivePrices(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.mustAdd(t, "A", 2)

	p, _ := f.snapshot.Product("A")
	p.Price = 1250
	if err := f.snapshot.SaveProduct(p); err != nil {
		t.Fatalf("SaveProduct() error = %v", err)
	}

	if total, _ := f.svc.Total(ctx, cartID); total != 2500 {
		t.Errorf("Total() after price change = %d, want 2500", total)
	}
}

func TestUpdateQuantity(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		qty       int
		wantLines int
		wantQty   int
	}{
		{name: "sets exactly", qty: 7, wantLines: 1, wantQty: 7},
		{name: "zero removes", qty: 0, wantLines: 0},
		{name: "negative removes", qty: -5, wantLines: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.mustAdd(t, "A", 2)

			items, err := f.svc.UpdateQuantity(ctx, cartID, "A", tt.qty)
			if err != nil {
				t.Fatalf("UpdateQuantity() error = %v", err)
			}
			if len(items) != tt.wantLines {
				t.Fatalf("UpdateQuantity() lines = %d, want %d", len(items), tt.wantLines)
			}
			if tt.wantLines == 1 && items[0].Quantity != tt.wantQty {
				t.Errorf("quantity = %d, want %d", items[0].Quantity, tt.wantQty)
			}

			stored, _ := f.svc.Items(ctx, cartID)
			for _, it := range stored {
				if it.Quantity <= 0 {
					t.Errorf("stored non-positive quantity: %+v", it)
				}
			}
		})
	}

	t.Run("absent product is a no-op", func(t *testing.T) {
		f := newFixture()
		f.mustAdd(t, "A", 1)
		items, err := f.svc.UpdateQuantity(ctx, cartID, "B", 4)
		if err != nil || len(items) != 1 || items[0].ProductID != "A" {
			t.Errorf("UpdateQuantity(absent) = %+v, %v", items, err)
		}
	})
}

func TestRemoveAndClear(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.mustAdd(t, "A", 1)
	f.mustAdd(t, "B", 1)

	items, err := f.svc.RemoveItem(ctx, cartID, "A")
	if err != nil || len(items) != 1 || items[0].ProductID != "B" {
		t.Errorf("RemoveItem() = %+v, %v", items, err)
	}
	if _, err := f.svc.RemoveItem(ctx, cartID, "A"); err != nil {
		t.Errorf("RemoveItem() of absent line error = %v", err)
	}

	if err := f.svc.Clear(ctx, cartID); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if n, _ := f.svc.ItemCount(ctx, cartID); n != 0 {
		t.Errorf("ItemCount() after Clear() = %d", n)
	}
}

func TestGroupBySellerCompleteness(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.mustAdd(t, "B", 3)
	f.mustAdd(t, "A", 2)
	f.mustAdd(t, "C", 4)

	groups, err := f.svc.GroupBySeller(ctx, cartID)
	if err != nil {
		t.Fatalf("GroupBySeller() error = %v", err)
	}
	if len(groups) != 2 || groups[0].Seller.ID != "s2" || groups[1].Seller.ID != "s1" {
		t.Fatalf("groups = %+v, want s2 then s1", groups)
	}

	seen := map[string]int{}
	var sum int64
	for _, g := range groups {
		for _, l := range g.Lines {
			seen[l.Product.ID]++
			if l.Product.SellerID != g.Seller.ID {
				t.Errorf("line %s grouped under %s", l.Product.ID, g.Seller.ID)
			}
		}
		sum += g.Subtotal
	}
	for _, id := range []string{"A", "B", "C"} {
		if seen[id] != 1 {
			t.Errorf("product %s appears in %d groups, want 1", id, seen[id])
		}
	}

	total, _ := f.svc.Total(ctx, cartID)
	if sum != total {
		t.Errorf("sum of subtotals = %d, Total() = %d", sum, total)
	}
}

func TestGroupBySellerOmitsStaleLines(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.mustAdd(t, "A", 1)
	f.mustAdd(t, "O", 1)
	f.mustAdd(t, "B", 1)

	// B disappears from the catalog after it was added.
	f.snapshot.Replace(catalogrepo.Data{
		Sellers:  []catalog.Seller{{ID: "s1", Name: "Baghdad Dates"}, {ID: "s2", Name: "Erbil Honey"}},
		Products: []catalog.Product{{ID: "A", SellerID: "s1", Price: 1000}, {ID: "O", SellerID: "ghost", Price: 99}},
	})

	groups, err := f.svc.GroupBySeller(ctx, cartID)
	if err != nil {
		t.Fatalf("GroupBySeller() error = %v", err)
	}
	if len(groups) != 1 || groups[0].Seller.ID != "s1" || len(groups[0].Lines) != 1 {
		t.Errorf("groups = %+v, want only s1 with A", groups)
	}
	if n, _ := f.svc.ItemCount(ctx, cartID); n != 3 {
		t.Errorf("stale lines were deleted from the cart: count %d", n)
	}
}

func TestTotalMatchesGroupsWhenSellerIsMissing(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.mustAdd(t, "A", 1)
	f.mustAdd(t, "O", 1)

	groups, err := f.svc.GroupBySeller(ctx, cartID)
	if err != nil {
		t.Fatalf("GroupBySeller() error = %v", err)
	}
	var sum int64
	for _, g := range groups {
		sum += g.Subtotal
	}

	total, err := f.svc.Total(ctx, cartID)
	if err != nil {
		t.Fatalf("Total() error = %v", err)
	}
	if total != 1000 || total != sum {
		t.Errorf("Total() = %d, sum of subtotals = %d, want both 1000", total, sum)
	}
}

func TestProcessCheckoutOpensOneSellerPerCall(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.mustAdd(t, "A", 2)
	f.mustAdd(t, "B", 3)

	seq, err := f.svc.ProcessCheckout(ctx, cartID, "en")
	if err != nil {
		t.Fatalf("ProcessCheckout() error = %v", err)
	}

	// A single OpenNext, as the storefront used to do, leaves the second seller unopened.
	seq.OpenNext(ctx)
	if seq.Remaining() != 1 || len(f.channel.Links()) != 1 {
		t.Errorf("after one OpenNext(): remaining %d, links %d", seq.Remaining(), len(f.channel.Links()))
	}
	if !strings.Contains(f.channel.Links()[0], "9647701234567") {
		t.Errorf("first link = %s, want seller s1", f.channel.Links()[0])
	}

	if n, _ := f.svc.ItemCount(ctx, cartID); n != 5 {
		t.Errorf("ProcessCheckout() changed the cart: count %d", n)
	}
}

func TestCompleteCheckoutDispatchesEverySeller(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.mustAdd(t, "A", 2)
	f.mustAdd(t, "B", 3)

	result, err := f.svc.CompleteCheckout(ctx, cartID, "en")
	if err != nil {
		t.Fatalf("CompleteCheckout() error = %v", err)
	}
	if len(result.Dispatches) != 2 || result.GrandTotal != 3500 {
		t.Errorf("CompleteCheckout() = %+v", result)
	}
	for _, d := range result.Dispatches {
		if d.Link == "" {
			t.Errorf("dispatch without link: %+v", d)
		}
	}
	if n, _ := f.svc.ItemCount(ctx, cartID); n != 0 {
		t.Errorf("cart not cleared after checkout: count %d", n)
	}

	if _, err := f.svc.CompleteCheckout(ctx, cartID, "en"); !errors.Is(err, ErrEmptyCart) {
		t.Errorf("CompleteCheckout() of empty cart error = %v, want %v", err, ErrEmptyCart)
	}
}

func TestStorageOutage(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.store.SetUnavailable(true)

	if _, err := f.svc.AddItem(ctx, cartID, "A", 1); !errors.Is(err, kvstore.ErrUnavailable) {
		t.Errorf("AddItem() error = %v, want ErrUnavailable", err)
	}
	if _, err := f.svc.GroupBySeller(ctx, cartID); err == nil {
		t.Error("GroupBySeller() expected error during outage")
	}
}

func TestCartItemHelpers(t *testing.T) {
	items := []domain.CartItem{{ProductID: "A", Quantity: 2}, {ProductID: "B", Quantity: 3}}
	if domain.ItemCount(items) != 5 {
		t.Errorf("ItemCount() = %d", domain.ItemCount(items))
	}
	if domain.Find(items, "B") != 1 || domain.Find(items, "Z") != -1 {
		t.Error("Find() returned wrong index")
	}
}
