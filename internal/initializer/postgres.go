package initializer

import (
	"fmt"

	"go.uber.org/zap"

	"werewolf-service/config"
	"werewolf-service/infra/postgres"
)

func InitDatabase(appConfig config.Config) *postgres.Repository {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		appConfig.Postgres.Host, appConfig.Postgres.Port, appConfig.Postgres.User,
		appConfig.Postgres.Password, appConfig.Postgres.DB)

	repo, err := postgres.NewRepository(connStr)
	if err != nil {
		zap.L().Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	return repo
}
