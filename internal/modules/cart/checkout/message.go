// Package checkout turns seller groups into order messages and hands them to
// an outbound channel one seller at a time.
package checkout

import (
	"strings"

	"github.com/fadl200/suaqiraq-sub000/internal/modules/cart/domain"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Message is the order summary sent to one seller.
type Message struct {
	SellerID   string `json:"sellerId"`
	SellerName string `json:"sellerName"`
	Phone      string `json:"phone"`
	Text       string `json:"text"`
	Total      int64  `json:"total"`
}

type template struct {
	greeting   string
	line       string
	total      string
	grandTotal string
	closing    string
}

var templates = map[string]template{
	"en": {
		greeting:   "Hello %s, I would like to order:",
		line:       "• %s × %d = %d IQD",
		total:      "Total: %d IQD",
		grandTotal: "Cart total across %d sellers: %d IQD",
		closing:    "Thank you!",
	},
	"ar": {
		greeting:   "مرحباً %s، أود طلب:",
		line:       "• %s × %d = %d د.ع",
		total:      "المجموع: %d د.ع",
		grandTotal: "مجموع السلة لدى %d بائعين: %d د.ع",
		closing:    "شكراً لك!",
	},
}

// BuildMessages composes one message per group in group order. The cart total
// is appended when the order spans more than one seller.
func BuildMessages(groups []domain.SellerGroup, locale string) []Message {
	tag, tpl := resolveLocale(locale)
	p := message.NewPrinter(tag)

	var grand int64
	for _, g := range groups {
		grand += g.Subtotal
	}

	messages := make([]Message, 0, len(groups))
	for _, g := range groups {
		var b strings.Builder
		b.WriteString(p.Sprintf(tpl.greeting, g.Seller.Name))
		b.WriteString("\n\n")
		for _, l := range g.Lines {
			b.WriteString(p.Sprintf(tpl.line, l.Product.Name, l.Quantity, l.LineTotal))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(p.Sprintf(tpl.total, g.Subtotal))
		if len(groups) > 1 {
			b.WriteString("\n")
			b.WriteString(p.Sprintf(tpl.grandTotal, len(groups), grand))
		}
		b.WriteString("\n\n")
		b.WriteString(tpl.closing)

		messages = append(messages, Message{
			SellerID:   g.Seller.ID,
			SellerName: g.Seller.Name,
			Phone:      g.Seller.Phone,
			Text:       b.String(),
			Total:      g.Subtotal,
		})
	}
	return messages
}

// resolveLocale falls back to Arabic for anything it does not know.
func resolveLocale(locale string) (language.Tag, template) {
	tag, err := language.Parse(locale)
	if err != nil {
		return language.Arabic, templates["ar"]
	}
	base, _ := tag.Base()
	tpl, ok := templates[base.String()]
	if !ok {
		return language.Arabic, templates["ar"]
	}
	return tag, tpl
}
