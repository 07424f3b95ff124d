package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"example.com/backstage/services/distribution/config"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/rs/zerolog/log"
)

// EventTypeDeliveryClosed is emitted when a daily delivery is closed and its
// actual quantities are frozen.
const EventTypeDeliveryClosed = "delivery.closed"

// DeliveryClosedEvent is the message body published when a delivery closes.
type DeliveryClosedEvent struct {
	DeliveryID        uint      `json:"deliveryId"`
	DeliveryDate      string    `json:"deliveryDate"`
	VehicleID         uint      `json:"vehicleId"`
	CompletedInvoices int       `json:"completedInvoices"`
	PendingInvoices   int       `json:"pendingInvoices"`
	CashCollected     float64   `json:"cashCollected"`
	ClosedAt          time.Time `json:"closedAt"`
}

// ServiceBusClient is an interface for Azure Service Bus operations
type ServiceBusClient interface {
	SendMessage(ctx context.Context, eventType string, body interface{}) error
	Close() error
}

// serviceBusClient implements the ServiceBusClient interface
type serviceBusClient struct {
	client     *azservicebus.Client
	sender     *azservicebus.Sender
	queueName  string
	clientType string
}

// NewServiceBusClient creates a new Azure Service Bus client
func NewServiceBusClient(cfg config.AzureConfig, clientType string) (ServiceBusClient, error) {
	if cfg.QueueConnStr == "" {
		return nil, fmt.Errorf("Azure Service Bus connection string is empty")
	}

	// Create the Service Bus client
	client, err := azservicebus.NewClientFromConnectionString(cfg.QueueConnStr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Service Bus client: %w", err)
	}

	// Create a sender for the queue
	sender, err := client.NewSender(cfg.QueueName, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Service Bus sender: %w", err)
	}

	return &serviceBusClient{
		client:     client,
		sender:     sender,
		queueName:  cfg.QueueName,
		clientType: clientType,
	}, nil
}

// SendMessage sends a message to the Service Bus queue
func (s *serviceBusClient) SendMessage(ctx context.Context, eventType string, body interface{}) error {
	// Convert the body to JSON
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal message body: %w", err)
	}

	// Create the message
	msg := &azservicebus.Message{
		Body: data,
		ApplicationProperties: map[string]interface{}{
			"source":    s.clientType,
			"eventType": eventType,
			"time":      time.Now().UTC().Format(time.RFC3339),
		},
	}

	// Send the message
	return s.sender.SendMessage(ctx, msg, nil)
}

// Close closes the Service Bus client
func (s *serviceBusClient) Close() error {
	// Close the sender
	if s.sender != nil {
		if err := s.sender.Close(context.Background()); err != nil {
			return err
		}
	}

	// Close the client
	if s.client != nil {
		return s.client.Close(context.Background())
	}

	return nil
}

// MessageHandler processes a single received message body. Returning an
// error abandons the message so it can be redelivered.
type MessageHandler func(ctx context.Context, eventType string, body []byte) error

// Consumer receives messages from the Service Bus queue and dispatches them
// to a handler.
type Consumer struct {
	client    *azservicebus.Client
	receiver  *azservicebus.Receiver
	queueName string
	handler   MessageHandler
}

// NewConsumer creates a queue consumer bound to the given handler.
func NewConsumer(cfg config.AzureConfig, handler MessageHandler) (*Consumer, error) {
	if cfg.QueueConnStr == "" {
		return nil, fmt.Errorf("Azure Service Bus connection string is empty")
	}

	client, err := azservicebus.NewClientFromConnectionString(cfg.QueueConnStr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Service Bus client: %w", err)
	}

	receiver, err := client.NewReceiverForQueue(cfg.QueueName, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Service Bus receiver: %w", err)
	}

	return &Consumer{
		client:    client,
		receiver:  receiver,
		queueName: cfg.QueueName,
		handler:   handler,
	}, nil
}

// Start runs the receive loop until the context is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	log.Info().Str("queue", c.queueName).Msg("starting service bus consumer")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		messages, err := c.receiver.ReceiveMessages(ctx, 10, nil)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error().Err(err).Msg("failed to receive messages, retrying")
			time.Sleep(5 * time.Second)
			continue
		}

		for _, msg := range messages {
			eventType := ""
			if v, ok := msg.ApplicationProperties["eventType"].(string); ok {
				eventType = v
			}

			if err := c.handler(ctx, eventType, msg.Body); err != nil {
				log.Error().Err(err).Str("event_type", eventType).Msg("message handler failed")
				if abandonErr := c.receiver.AbandonMessage(ctx, msg, nil); abandonErr != nil {
					log.Error().Err(abandonErr).Msg("failed to abandon message")
				}
				continue
			}

			if err := c.receiver.CompleteMessage(ctx, msg, nil); err != nil {
				log.Error().Err(err).Msg("failed to complete message")
			}
		}
	}
}

// Close closes the consumer's receiver and client.
func (c *Consumer) Close() error {
	if c.receiver != nil {
		if err := c.receiver.Close(context.Background()); err != nil {
			return err
		}
	}
	if c.client != nil {
		return c.client.Close(context.Background())
	}
	return nil
}
