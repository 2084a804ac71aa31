package mailer

import (
	"bytes"
	"embed"
	htmltemplate "html/template"
	"strconv"
	"strings"
	texttemplate "text/template"
	"time"

	"kkmt-store/models"
)

//go:embed templates/*.html templates/*.txt
var templateFS embed.FS

var (
	htmlTemplates = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/*.html"))
	textTemplates = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/*.txt"))
)

// EmailItem is one formatted order line.
type EmailItem struct {
	Name      string
	Quantity  int
	Price     string
	LineTotal string
}

// OrderEmail is the view model shared by the order templates.
type OrderEmail struct {
	Code          string
	StoreName     string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Address       models.ShippingAddress
	Items         []EmailItem
	Subtotal      string
	ShippingFee   string
	Total         string
	PlacedAt      string
}

// NewOrderEmail formats an order for the templates. Items are expected to
// have their Product loaded; a missing product falls back to its id.
func NewOrderEmail(order *models.Order, storeName string) OrderEmail {
	items := make([]EmailItem, len(order.Items))
	for i := range order.Items {
		it := &order.Items[i]
		name := "Product #" + strconv.FormatUint(uint64(it.ProductID), 10)
		if it.Product != nil && it.Product.Name != "" {
			name = it.Product.Name
		}
		items[i] = EmailItem{
			Name:      name,
			Quantity:  it.Quantity,
			Price:     models.FormatPeso(it.Price),
			LineTotal: models.FormatPeso(it.LineTotal()),
		}
	}
	placed := order.CreatedAt
	if placed.IsZero() {
		placed = time.Now()
	}
	return OrderEmail{
		Code:          order.Code,
		StoreName:     storeName,
		CustomerName:  order.CustomerName,
		CustomerEmail: order.CustomerEmail,
		CustomerPhone: order.CustomerPhone,
		Address:       order.ShippingAddress.Data(),
		Items:         items,
		Subtotal:      models.FormatPeso(order.Subtotal),
		ShippingFee:   models.FormatPeso(order.ShippingFee),
		Total:         models.FormatPeso(order.Total),
		PlacedAt:      placed.Format("Jan 2, 2006 3:04 PM"),
	}
}

// RenderNewOrder builds the store's new-order notification.
func RenderNewOrder(from, to string, data OrderEmail) (Message, error) {
	return render("new_order", Message{
		From:    from,
		To:      to,
		Subject: "New Order Received: " + data.Code,
	}, data)
}

// RenderReceipt builds the customer's receipt.
func RenderReceipt(from, to string, data OrderEmail) (Message, error) {
	return render("receipt", Message{
		From:    from,
		To:      to,
		Subject: "Your Order Receipt: " + data.Code,
	}, data)
}

func render(name string, msg Message, data OrderEmail) (Message, error) {
	var html, text bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&html, name+".html", data); err != nil {
		return Message{}, err
	}
	if err := textTemplates.ExecuteTemplate(&text, name+".txt", data); err != nil {
		return Message{}, err
	}
	msg.HTML = html.String()
	msg.Text = strings.TrimSpace(text.String()) + "\n"
	return msg, nil
}
