package kafka

import (
	"context"

	"github.com/iwtcode/shuiService/internal/config"
	"github.com/iwtcode/shuiService/internal/interfaces"
	"github.com/iwtcode/shuiService/internal/middleware/logging"

	"github.com/segmentio/kafka-go"
)

type KafkaProducer struct {
	writer *kafka.Writer
	logger *logging.Logger
}

// NewKafkaProducer создает новый экземпляр продюсера Kafka.
// При KAFKA_ENABLE=false возвращает nil: публикация отключена.
func NewKafkaProducer(cfg *config.AppConfig, logger *logging.Logger) (interfaces.KafkaService, error) {
	if !cfg.Kafka.Enable {
		logger.Info("Kafka export is disabled")
		return nil, nil
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Kafka.Broker),
		Topic:                  cfg.Kafka.Topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	logger.Info("Kafka producer created", "broker", cfg.Kafka.Broker, "topic", cfg.Kafka.Topic)
	return &KafkaProducer{writer: writer, logger: logger.WithPrefix("KAFKA")}, nil
}

// Produce отправляет сообщение в Kafka. Ключ - имя принтера, чтобы сообщения
// одного принтера попадали в одну партицию по порядку.
func (p *KafkaProducer) Produce(ctx context.Context, key, value []byte) error {
	return p.writer.WriteMessages(ctx,
		kafka.Message{
			Key:   key,
			Value: value,
		},
	)
}

// Close закрывает соединение с Kafka
func (p *KafkaProducer) Close() error {
	p.logger.Info("Closing Kafka producer")
	return p.writer.Close()
}
