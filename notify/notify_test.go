package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/datatypes"

	"kkmt-store/mailer"
	"kkmt-store/models"
	"kkmt-store/settings"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingSender struct {
	mu   sync.Mutex
	sent []mailer.Message
	fail map[string]error // by recipient
}

func (s *recordingSender) Send(ctx context.Context, msg mailer.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail[msg.To]; err != nil {
		return err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *recordingSender) subjects() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.sent))
	for i, m := range s.sent {
		out[i] = m.Subject
	}
	return out
}

type staticSettings struct {
	eff settings.Effective
	err error
}

func (s staticSettings) Effective(context.Context) (settings.Effective, error) {
	return s.eff, s.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []OrderEvent
	err    error
	block  bool
}

func (p *recordingPublisher) Publish(ctx context.Context, e OrderEvent) error {
	if p.block {
		<-ctx.Done()
		return ctx.Err()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

var storeSettings = staticSettings{eff: settings.Effective{
	StoreEmail: "orders@kkmt.ph",
	FromEmail:  "KKMT <shop@kkmt.ph>",
	StoreName:  "KKMT",
}}

func testOrder() *models.Order {
	return &models.Order{
		Code:          "KKMTXYZ789",
		Subtotal:      decimal.NewFromInt(1200),
		ShippingFee:   decimal.NewFromInt(150),
		Total:         decimal.NewFromInt(1350),
		CustomerName:  "Maria",
		CustomerEmail: "maria@example.com",
		ShippingAddress: datatypes.NewJSONType(models.ShippingAddress{
			Province: "Bohol", City: "Tagbilaran", Barangay: "Cogon", Street: "CPG Ave",
		}),
		Items: []models.OrderItem{{ProductID: 4, Quantity: 1, Price: decimal.NewFromInt(1200)}},
	}
}

func TestOrderPlacedSendsStoreAndReceipt(t *testing.T) {
	sender := &recordingSender{}
	pub := &recordingPublisher{}
	d := NewDispatcher(sender, storeSettings, pub, zap.NewNop(), time.Second)

	d.OrderPlaced(context.Background(), testOrder(), true)

	assert.ElementsMatch(t, []string{
		"New Order Received: KKMTXYZ789",
		"Your Order Receipt: KKMTXYZ789",
	}, sender.subjects())
	require.Len(t, pub.events, 1)
	assert.Equal(t, OrderEvent{Event: "order.created", OrderID: "KKMTXYZ789", Total: "1350.00", Items: 1}, pub.events[0])
}

func TestOrderPlacedWithoutReceipt(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender, storeSettings, nil, zap.NewNop(), time.Second)

	d.OrderPlaced(context.Background(), testOrder(), false)

	assert.Equal(t, []string{"New Order Received: KKMTXYZ789"}, sender.subjects())
}

func TestOrderPlacedSwallowsFailures(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sender := &recordingSender{fail: map[string]error{"orders@kkmt.ph": errors.New("smtp 550")}}
	pub := &recordingPublisher{err: errors.New("broker gone")}
	d := NewDispatcher(sender, storeSettings, pub, zap.New(core), time.Second)

	d.OrderPlaced(context.Background(), testOrder(), true)

	// The receipt still goes out
	assert.Equal(t, []string{"Your Order Receipt: KKMTXYZ789"}, sender.subjects())
	assert.Equal(t, 1, logs.FilterMessage("send new order notification").Len())
	assert.Equal(t, 1, logs.FilterMessage("publish order event").Len())
}

func TestOrderPlacedWithoutStoreEmail(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sender := &recordingSender{}
	src := staticSettings{eff: settings.Effective{FromEmail: "KKMT <no-reply@example.com>", StoreName: "KKMT"}}
	d := NewDispatcher(sender, src, nil, zap.New(core), time.Second)

	d.OrderPlaced(context.Background(), testOrder(), true)

	assert.Equal(t, []string{"Your Order Receipt: KKMTXYZ789"}, sender.subjects())
	assert.Equal(t, 1, logs.FilterMessage("no store email configured, skipping new order notification").Len())
}

func TestOrderPlacedSettingsError(t *testing.T) {
	sender := &recordingSender{}
	pub := &recordingPublisher{}
	d := NewDispatcher(sender, staticSettings{err: errors.New("db down")}, pub, zap.NewNop(), time.Second)

	d.OrderPlaced(context.Background(), testOrder(), true)

	assert.Empty(t, sender.subjects())
	assert.Len(t, pub.events, 1)
}

func TestOrderPlacedRespectsTimeout(t *testing.T) {
	d := NewDispatcher(&recordingSender{}, storeSettings, &recordingPublisher{block: true}, zap.NewNop(), 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // a client that already hung up does not cut notifications short

	start := time.Now()
	d.OrderPlaced(ctx, testOrder(), false)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.Less(t, time.Since(start), time.Second)
}
