// mqtt.go - Publishes order events to an MQTT broker
// Downstream consumers (warehouse display, packing printer) subscribe to the
// topic and receive one JSON message per order.

package notify // Declares the package name

import ( // Import required packages
	"context"       // Cancellation while waiting on the broker
	"encoding/json" // Payload encoding
	"fmt"           // Error wrapping
	"time"          // Connect timeout

	mqtt "github.com/eclipse/paho.mqtt.golang" // MQTT client
	"go.uber.org/zap"                          // Structured logging
)

// Publisher delivers an order event somewhere outside the process.
type Publisher interface {
	Publish(ctx context.Context, event OrderEvent) error
}

// OrderEvent is the message published for each placed order.
type OrderEvent struct {
	Event     string    `json:"event"`   // Always "order.created"
	OrderID   string    `json:"orderId"` // Public order code
	Total     string    `json:"total"`   // Decimal string, e.g. "2650.00"
	Items     int       `json:"items"`   // Units in the order
	CreatedAt time.Time `json:"createdAt"`
}

// MQTTPublisher publishes events with QoS 1 on a single topic.
type MQTTPublisher struct {
	client mqtt.Client
	topic  string
}

// ConnectMQTT connects to broker and returns a publisher.
func ConnectMQTT(broker, clientID, topic string, log *zap.Logger) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions() // Build client options
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn("mqtt connection lost", zap.Error(err))
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(15 * time.Second) { // Broker did not answer
		return nil, fmt.Errorf("mqtt connect to %s: timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", broker, err)
	}
	log.Info("mqtt connected", zap.String("broker", broker), zap.String("topic", topic))
	return NewMQTTPublisher(client, topic), nil
}

// NewMQTTPublisher wraps an existing client.
func NewMQTTPublisher(client mqtt.Client, topic string) *MQTTPublisher {
	return &MQTTPublisher{client: client, topic: topic}
}

// Publish sends the event and waits for the broker acknowledgement.
func (p *MQTTPublisher) Publish(ctx context.Context, event OrderEvent) error {
	payload, err := json.Marshal(event) // Encode payload as JSON
	if err != nil {
		return err
	}
	token := p.client.Publish(p.topic, 1, false, payload) // QoS 1, not retained
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return fmt.Errorf("mqtt publish %s: %w", event.OrderID, ctx.Err())
	}
}

// Close disconnects, giving in-flight messages 250ms.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
