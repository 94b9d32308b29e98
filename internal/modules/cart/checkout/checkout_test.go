package checkout

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/fadl200/suaqiraq-sub000/internal/modules/cart/domain"
	catalog "github.com/fadl200/suaqiraq-sub000/internal/modules/catalog/domain"
	"github.com/gaborage/go-bricks/logger"
)

func testGroups() []domain.SellerGroup {
	return []domain.SellerGroup{
		{
			Seller: catalog.Seller{ID: "s1", Name: "Baghdad Dates", Phone: "0770 123 4567"},
			Lines: []domain.Line{
				{Product: catalog.Product{ID: "A", Name: "Barhi dates", Price: 1000}, Quantity: 2, LineTotal: 2000},
			},
			Subtotal: 2000,
		},
		{
			Seller: catalog.Seller{ID: "s2", Name: "Erbil Honey", Phone: "+964 750 987 6543"},
			Lines: []domain.Line{
				{Product: catalog.Product{ID: "B", Name: "Mountain honey", Price: 500}, Quantity: 3, LineTotal: 1500},
			},
			Subtotal: 1500,
		},
	}
}

func TestBuildMessagesEnglish(t *testing.T) {
	messages := BuildMessages(testGroups(), "en")

	if len(messages) != 2 {
		t.Fatalf("BuildMessages() = %d messages, want 2", len(messages))
	}

	first := messages[0]
	if first.SellerID != "s1" || first.Total != 2000 {
		t.Errorf("first message = %+v", first)
	}
	for _, want := range []string{
		"Hello Baghdad Dates",
		"Barhi dates × 2 = 2,000 IQD",
		"Total: 2,000 IQD",
		"Cart total across 2 sellers: 3,500 IQD",
		"Thank you!",
	} {
		if !strings.Contains(first.Text, want) {
			t.Errorf("message text missing %q:\n%s", want, first.Text)
		}
	}
}

func TestBuildMessagesArabic(t *testing.T) {
	groups := testGroups()[:1]
	messages := BuildMessages(groups, "ar-IQ")

	text := messages[0].Text
	if !strings.HasPrefix(text, "مرحباً Baghdad Dates") || !strings.HasSuffix(text, "شكراً لك!") {
		t.Errorf("arabic message =\n%s", text)
	}
	if strings.Contains(text, "مجموع السلة") {
		t.Error("single-seller message contains the cart total")
	}
}

func TestBuildMessagesUnknownLocaleFallsBackToArabic(t *testing.T) {
	messages := BuildMessages(testGroups(), "not a locale")
	if !strings.Contains(messages[0].Text, "المجموع") {
		t.Errorf("fallback message =\n%s", messages[0].Text)
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		phone string
		want  string
	}{
		{phone: "07701234567", want: "9647701234567"},
		{phone: "0770 123 4567", want: "9647701234567"},
		{phone: "+964 750 987 6543", want: "9647509876543"},
		{phone: "00964-780-111-2233", want: "9647801112233"},
		{phone: "7801112233", want: "9647801112233"},
		{phone: "n/a", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			if got := NormalizePhone(tt.phone); got != tt.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.phone, got, tt.want)
			}
		})
	}
}

func TestWhatsAppChannelOpen(t *testing.T) {
	ch := NewWhatsAppChannel("https://wa.me")

	link, err := ch.Open(context.Background(), "07701234567", "Hello & thanks\nsee you")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("link %q does not parse: %v", link, err)
	}
	if u.Host != "wa.me" || u.Path != "/9647701234567" {
		t.Errorf("link = %q", link)
	}
	if got := u.Query().Get("text"); got != "Hello & thanks\nsee you" {
		t.Errorf("text = %q", got)
	}
	if strings.Contains(link, "+") {
		t.Errorf("link encodes spaces as '+': %q", link)
	}
	if len(ch.Links()) != 1 {
		t.Errorf("Links() = %v", ch.Links())
	}

	if _, err := ch.Open(context.Background(), "", "hi"); err == nil {
		t.Error("Open() with empty phone expected error")
	}
}

// mockChannel implements Channel for testing
type mockChannel struct {
	openFunc func(ctx context.Context, phone, text string) (string, error)
	phones   []string
}

func (m *mockChannel) Open(ctx context.Context, phone, text string) (string, error) {
	m.phones = append(m.phones, phone)
	if m.openFunc != nil {
		return m.openFunc(ctx, phone, text)
	}
	return "link:" + phone, nil
}

func TestSequencer(t *testing.T) {
	ctx := context.Background()
	ch := &mockChannel{}
	seq := NewSequencer(BuildMessages(testGroups(), "en"), ch, logger.New("info", false))

	if seq.Remaining() != 2 {
		t.Fatalf("Remaining() = %d, want 2", seq.Remaining())
	}

	if !seq.OpenNext(ctx) {
		t.Fatal("first OpenNext() = false")
	}
	if seq.Remaining() != 1 || len(ch.phones) != 1 || ch.phones[0] != "0770 123 4567" {
		t.Errorf("after first OpenNext(): remaining %d, phones %v", seq.Remaining(), ch.phones)
	}

	if !seq.OpenNext(ctx) {
		t.Fatal("second OpenNext() = false")
	}
	for i := 0; i < 3; i++ {
		if seq.OpenNext(ctx) {
			t.Error("OpenNext() after exhaustion = true")
		}
	}
	if len(ch.phones) != 2 {
		t.Errorf("channel opened %d times, want 2", len(ch.phones))
	}

	dispatched := seq.Dispatched()
	if len(dispatched) != 2 || dispatched[1].Message.SellerID != "s2" || dispatched[1].Link == "" {
		t.Errorf("Dispatched() = %+v", dispatched)
	}
}

func TestSequencerChannelFailureAdvances(t *testing.T) {
	ctx := context.Background()
	ch := &mockChannel{
		openFunc: func(_ context.Context, phone, _ string) (string, error) {
			if phone == "0770 123 4567" {
				return "", errors.New("no handler for wa.me")
			}
			return "ok", nil
		},
	}
	seq := NewSequencer(BuildMessages(testGroups(), "en"), ch, logger.New("info", false))

	for seq.OpenNext(ctx) {
	}

	dispatched := seq.Dispatched()
	if len(dispatched) != 2 {
		t.Fatalf("Dispatched() = %d, want 2", len(dispatched))
	}
	if dispatched[0].Error == "" || dispatched[0].Link != "" {
		t.Errorf("failed dispatch = %+v", dispatched[0])
	}
	if dispatched[1].Link != "ok" {
		t.Errorf("second dispatch = %+v", dispatched[1])
	}
}
