package config

import (
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type Config struct {
	HTTPPort             string        `mapstructure:"HTTP_PORT"`
	StoreBackend         string        `mapstructure:"STORE_BACKEND"`
	OrderDatabaseURL     string        `mapstructure:"ORDER_DATABASE_URL"`
	InventoryDatabaseURL string        `mapstructure:"INVENTORY_DATABASE_URL"`
	RedisURL             string        `mapstructure:"REDIS_URL"`
	JWTSecret            string        `mapstructure:"JWT_SECRET"`
	OtelExporterEndpoint string        `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OtelServiceName      string        `mapstructure:"OTEL_SERVICE_NAME"`
	ReconcileInterval    time.Duration `mapstructure:"RECONCILE_INTERVAL"`
	ReconcileAge         time.Duration `mapstructure:"RECONCILE_AGE"`
}

// StoreBackend values. Postgres uses two independent databases, one per
// aggregate; memory keeps everything in-process.
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

func setDefaults() {
	viper.SetDefault("HTTP_PORT", ":8080")
	viper.SetDefault("STORE_BACKEND", BackendMemory)
	viper.SetDefault("OTEL_SERVICE_NAME", "order-inventory")
	viper.SetDefault("RECONCILE_INTERVAL", time.Minute)
	viper.SetDefault("RECONCILE_AGE", 5*time.Minute)
}

func LoadConfig(cfg any) {
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults()

	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		envKey := field.Tag.Get("mapstructure")
		if envKey == "" {
			continue
		}

		err := viper.BindEnv(envKey)
		if err != nil {
			tempLogger, _ := zap.NewProduction()
			defer tempLogger.Sync()
			tempLogger.Fatal("Failed to bind env var", zap.String("key", envKey), zap.Error(err))
		}
	}

	err := viper.Unmarshal(cfg)
	if err != nil {
		tempLogger, _ := zap.NewProduction()
		defer tempLogger.Sync()
		tempLogger.Fatal("Unable to decode config into struct", zap.Error(err))
	}
}
