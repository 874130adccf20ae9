package main

import (
	"go.uber.org/zap"

	"werewolf-service/config"
	"werewolf-service/internal/bootstrap"
	_ "werewolf-service/log"
)

func main() {
	appConfig := config.Read()
	defer zap.L().Sync()
	zap.L().Info("app starting...", zap.String("app name", appConfig.App.Name))

	app := bootstrap.NewApp(appConfig)

	app.Start()
}
