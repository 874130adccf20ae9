package config

import (
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Game     GameConfig     `mapstructure:"game"`
}

type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

type ServerConfig struct {
	Port           string `mapstructure:"port"`
	Host           string `mapstructure:"host"`
	FrontendOrigin string `mapstructure:"frontendorigin"`
}

type PostgresConfig struct {
	Port     string `mapstructure:"port"`
	Host     string `mapstructure:"host"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DB       string `mapstructure:"db"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Brokers    []string `mapstructure:"brokers"`
	EventTopic string   `mapstructure:"eventtopic"`
	UserTopic  string   `mapstructure:"usertopic"`
	GroupID    string   `mapstructure:"groupid"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

type GameConfig struct {
	NightDuration          int     `mapstructure:"nightduration"`
	DayDuration            int     `mapstructure:"dayduration"`
	VoteDuration           int     `mapstructure:"voteduration"`
	LittleGirlCatchChance  float64 `mapstructure:"littlegirlcatchchance"`
	HunterGraceSeconds     int     `mapstructure:"huntergraceseconds"`
	DisconnectGraceSeconds int     `mapstructure:"disconnectgraceseconds"`
	AbandonTimeoutMinutes  int     `mapstructure:"abandontimeoutminutes"`
}

func Read() Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/app")
	viper.AddConfigPath("/")

	// Defaults
	viper.SetDefault("app.name", "werewolf-service")
	viper.SetDefault("server.port", "8083")
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.frontendorigin", "http://localhost:3000")

	viper.SetDefault("postgres.port", "5432")
	viper.SetDefault("postgres.host", "localhost")
	viper.SetDefault("postgres.user", "myuser")
	viper.SetDefault("postgres.password", "mypassword")
	viper.SetDefault("postgres.db", "werewolfdb")

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", "6379")
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("kafka.brokers", []string{"localhost:9092"})
	viper.SetDefault("kafka.eventtopic", "game-events")
	viper.SetDefault("kafka.usertopic", "user-events")
	viper.SetDefault("kafka.groupid", "werewolf-service")

	viper.SetDefault("jwt.secret", "dev-secret-change-me")

	viper.SetDefault("game.nightduration", 90)
	viper.SetDefault("game.dayduration", 180)
	viper.SetDefault("game.voteduration", 60)
	viper.SetDefault("game.littlegirlcatchchance", 0.1)
	viper.SetDefault("game.huntergraceseconds", 30)
	viper.SetDefault("game.disconnectgraceseconds", 60)
	viper.SetDefault("game.abandontimeoutminutes", 60)

	// ENV overrides with prefix WOLF_ and dot-to-underscore replacement
	viper.SetEnvPrefix("WOLF")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		zap.L().Warn("Failed to read configuration file", zap.Error(err))
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		zap.L().Error("Configuration could not be parsed", zap.Error(err))
	}

	return config
}
