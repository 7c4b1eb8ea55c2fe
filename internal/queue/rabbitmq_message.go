package queue

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Message represents a message from the queue with acknowledgment capabilities
type Message struct {
	Job         *Job
	DeliveryTag uint64
	Channel     *amqp.Channel
}

var _ MessageInterface = (*Message)(nil)

// GetJob returns the job payload carried by this message
func (m *Message) GetJob() *Job {
	return m.Job
}

// Ack acknowledges the message, removing it from the queue
func (m *Message) Ack() error {
	if m.Channel == nil {
		return fmt.Errorf("channel is nil")
	}
	return m.Channel.Ack(m.DeliveryTag, false)
}

// Nack negatively acknowledges the message
// If requeue is true, the message is requeued; otherwise it goes to the DLQ
func (m *Message) Nack(requeue bool) error {
	if m.Channel == nil {
		return fmt.Errorf("channel is nil")
	}
	return m.Channel.Nack(m.DeliveryTag, false, requeue)
}
