package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	MongoDB   MongoDBConfig   `mapstructure:"mongodb"`
	MySQL     MySQLConfig     `mapstructure:"mysql"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Email     EmailConfig     `mapstructure:"email"`
	Store     StoreConfig     `mapstructure:"store"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Name string `mapstructure:"name"`
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// StorageConfig selects the order/product store backend.
// Driver is either "mongo" or "mysql".
type StorageConfig struct {
	Driver string `mapstructure:"driver"`
}

type MongoDBConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type MySQLConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type AuthConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

type EmailConfig struct {
	BaseURL          string        `mapstructure:"base_url"`
	APIKey           string        `mapstructure:"api_key"`
	From             string        `mapstructure:"from"`
	OwnerAddress     string        `mapstructure:"owner_address"`
	OwnerTemplate    string        `mapstructure:"owner_template"`
	CustomerTemplate string        `mapstructure:"customer_template"`
	Timeout          time.Duration `mapstructure:"timeout"`
}

// StoreConfig carries the storefront business constants.
type StoreConfig struct {
	DeliveryCharge float64 `mapstructure:"delivery_charge"`
	// FreeDeliveryAbove waives the delivery charge once the subtotal
	// reaches it. Zero disables waiving.
	FreeDeliveryAbove float64       `mapstructure:"free_delivery_above"`
	MinimumOrder      float64       `mapstructure:"minimum_order"`
	MaxItemQuantity   int           `mapstructure:"max_item_quantity"`
	CartTTL           time.Duration `mapstructure:"cart_ttl"`
	CatalogCacheTTL   time.Duration `mapstructure:"catalog_cache_ttl"`
}

type RateLimitConfig struct {
	Window       time.Duration `mapstructure:"window"`
	Max          int           `mapstructure:"max"`
	ClientHeader string        `mapstructure:"client_header"`
	TrustProxy   bool          `mapstructure:"trust_proxy"`
}

type LogConfig struct {
	Level       string   `mapstructure:"level"`
	Encoding    string   `mapstructure:"encoding"`
	OutputPaths []string `mapstructure:"output_paths"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.SetDefault("storage.driver", "mongo")
	v.SetDefault("store.max_item_quantity", 99)
	v.SetDefault("store.cart_ttl", "24h")
	v.SetDefault("store.catalog_cache_ttl", "30m")
	v.SetDefault("ratelimit.window", "1h")
	v.SetDefault("ratelimit.max", 5)
	v.SetDefault("email.timeout", "30s")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func (c *MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.Username, c.Password, c.Host, c.Port, c.Database)
}
