package config

import (
	"time"
)

type DB struct {
	Url string `envconfig:"URL" default:"file:fxconvert.db"`
}

type Redis struct {
	URL          string        `envconfig:"URL" default:"redis://localhost:6379/0"`
	KeyPrefix    string        `envconfig:"KEY_PREFIX" default:"fxconvert:"`
	PoolSize     int           `envconfig:"POOL_SIZE" default:"10"`
	DialTimeout  time.Duration `envconfig:"DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"3s"`
}

type RateLimit struct {
	MaxRequests int           `envconfig:"MAX_REQUESTS" default:"100"`
	Window      time.Duration `envconfig:"WINDOW" default:"1m"`
}

//revive:disable
type ExchangeRate struct {
	Provider        string        `envconfig:"PROVIDER" default:"openexchangerates"`
	AppID           string        `envconfig:"APP_ID"`
	ApiUrl          string        `envconfig:"API_URL" default:"https://openexchangerates.org/api/"`
	BaseCurrency    string        `envconfig:"BASE_CURRENCY" default:"USD"`
	RefreshInterval time.Duration `envconfig:"REFRESH_INTERVAL" default:"30m"`
	HTTPTimeout     time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s"`
}

//revive:enable

type Connectivity struct {
	Disabled  bool          `envconfig:"DISABLED" default:"false"`
	ProbeAddr string        `envconfig:"PROBE_ADDR" default:"openexchangerates.org:443"`
	Timeout   time.Duration `envconfig:"TIMEOUT" default:"2s"`
}

type EventBus struct {
	Driver       string   `envconfig:"DRIVER" default:"memory"`
	KafkaBrokers []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	TopicPrefix  string   `envconfig:"TOPIC_PREFIX" default:"fxconvert"`
}

type TimestampStore struct {
	Driver string `envconfig:"DRIVER" default:"db"`
}

type Log struct {
	Level      int    `envconfig:"LEVEL" default:"0"`
	Format     string `envconfig:"FORMAT" default:"text"`
	TimeFormat string `envconfig:"TIME_FORMAT" default:"2006-01-02 15:04:05"`
	Prefix     string `envconfig:"PREFIX" default:"[fxconvert]"`
}

type Server struct {
	Scheme string `envconfig:"SCHEME" default:"http"`
	Host   string `envconfig:"HOST" default:"localhost"`
	Port   int    `envconfig:"PORT" default:"3000"`
}

type App struct {
	Env            string          `envconfig:"APP_ENV" default:"development"`
	Server         *Server         `envconfig:"SERVER"`
	Log            *Log            `envconfig:"LOG"`
	DB             *DB             `envconfig:"DATABASE"`
	Redis          *Redis          `envconfig:"REDIS"`
	RateLimit      *RateLimit      `envconfig:"RATE_LIMIT"`
	ExchangeRate   *ExchangeRate   `envconfig:"EXCHANGE_RATE"`
	Connectivity   *Connectivity   `envconfig:"CONNECTIVITY"`
	EventBus       *EventBus       `envconfig:"EVENT_BUS"`
	TimestampStore *TimestampStore `envconfig:"TIMESTAMP_STORE"`
}
