package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// Topics names the topic per event family
type Topics struct {
	Bets         string
	Settlements  string
	Transactions string
}

func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
	}
}

// KafkaPublisher writes JSON events keyed by the owning entity id
type KafkaPublisher struct {
	bets         *kafka.Writer
	settlements  *kafka.Writer
	transactions *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topics Topics) *KafkaPublisher {
	return &KafkaPublisher{
		bets:         NewWriter(brokers, topics.Bets),
		settlements:  NewWriter(brokers, topics.Settlements),
		transactions: NewWriter(brokers, topics.Transactions),
	}
}

func (p *KafkaPublisher) PublishBetPlaced(ctx context.Context, e BetPlaced) error {
	return writeJSON(ctx, p.bets, e.BetID, e)
}

func (p *KafkaPublisher) PublishQuestionSettled(ctx context.Context, e QuestionSettled) error {
	return writeJSON(ctx, p.settlements, fmt.Sprintf("question-%d", e.QuestionID), e)
}

func (p *KafkaPublisher) PublishTransactionResolved(ctx context.Context, e TransactionResolved) error {
	return writeJSON(ctx, p.transactions, e.TransactionID, e)
}

// Close flushes and closes every writer
func (p *KafkaPublisher) Close() error {
	return errors.Join(p.bets.Close(), p.settlements.Close(), p.transactions.Close())
}

func writeJSON(ctx context.Context, w *kafka.Writer, key string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: b,
		Time:  time.Now(),
	})
}
