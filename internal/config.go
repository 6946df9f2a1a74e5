package internal

import "time"

type Config struct {
	Host string `env:"HOST,default=0.0.0.0"`
	Port int    `env:"PORT,default=8080"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH,required=true"`
	LogLevel       string `env:"LOG_LEVEL,default=info"`

	JWTSecret         string        `env:"JWT_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`

	// BufferSize is the capacity of the background event channel,
	// ConnectionBufferSize the capacity of each session's outbound sink.
	BufferSize           int           `env:"BUFFER_SIZE,default=256"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=32"`
	DeliveryTimeout      time.Duration `env:"DELIVERY_TIMEOUT,default=2s"`

	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	MetricInterval  time.Duration `env:"METRIC_INTERVAL,default=5s"`

	PingInterval time.Duration `env:"PING_INTERVAL,default=30s"`
	PongTimeout  time.Duration `env:"PONG_TIMEOUT,default=75s"`

	CharReplacement string `env:"CHARACTER_REPLACEMENT,default=*"`

	// LimitMessages optionally lowers the history page cap below the
	// built-in maximum of 100.
	LimitMessages *int `env:"LIMIT_MESSAGES"`
}
