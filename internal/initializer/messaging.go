package initializer

import (
	"context"

	"go.uber.org/zap"

	"werewolf-service/config"
	"werewolf-service/internal/messaging"
)

// InitMessaging connects the kafka client and starts the user-events
// consumer. The returned cancel stops the consumer loop.
func InitMessaging(appConfig config.Config, handlers map[string]messaging.Handler) (*messaging.KafkaClient, context.CancelFunc) {
	client, err := messaging.NewKafkaClient(appConfig.Kafka.Brokers, appConfig.Kafka.EventTopic)
	if err != nil {
		zap.L().Fatal("Failed to create kafka client", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		zap.L().Info("Starting kafka consumer",
			zap.String("topic", appConfig.Kafka.UserTopic),
			zap.String("group", appConfig.Kafka.GroupID))
		if err := client.Consume(ctx, appConfig.Kafka.UserTopic, appConfig.Kafka.GroupID, handlers); err != nil {
			zap.L().Error("kafka consumer stopped", zap.Error(err))
		}
	}()

	return client, cancel
}
