package initializer

import (
	"fmt"

	"go.uber.org/zap"

	"werewolf-service/config"
	"werewolf-service/infra/redis"
)

func InitRedis(appConfig config.Config) *redis.Manager {
	address := fmt.Sprintf("%s:%s", appConfig.Redis.Host, appConfig.Redis.Port)

	manager, err := redis.NewManager(address, appConfig.Redis.Password, appConfig.Redis.DB)
	if err != nil {
		zap.L().Fatal("Failed to connect to Redis", zap.Error(err))
	}
	return manager
}
