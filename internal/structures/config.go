package structures

import "time"

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type Persistence struct {
	FilePath     string        `yaml:"filePath" validate:"required|unixPath"`
	SaveInterval time.Duration `yaml:"saveInterval" validate:"required|min:1"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Size    int           `yaml:"size"`
	TTL     time.Duration `yaml:"ttl"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// SinkConfig drives the single-consumer endpoint.
type SinkConfig struct {
	HeartbeatTimeout time.Duration `yaml:"heartbeatTimeout" validate:"required|min:1"`
	SweepInterval    time.Duration `yaml:"sweepInterval" validate:"required|min:1"`
	MaxNotifications int           `yaml:"maxNotifications" validate:"required|min:1"`
}

// AgentConfig drives the producer side.
type AgentConfig struct {
	SinkURL           string        `yaml:"sinkUrl" validate:"required|fullUrl"`
	Enabled           bool          `yaml:"enabled"`
	HeartbeatInterval time.Duration `yaml:"heartbeatInterval" validate:"required|min:1"`
	RequestTimeout    time.Duration `yaml:"requestTimeout" validate:"required|min:1"`
	BuildInterval     time.Duration `yaml:"buildInterval" validate:"required|min:1"`
	MaxBodySize       int64         `yaml:"maxBodySize" validate:"required|min:1"`
}

type HotStreakConfig struct {
	Increases int           `yaml:"increases" validate:"required|min:1"`
	Window    time.Duration `yaml:"window" validate:"required|min:1"`
}

type NotificationConfig struct {
	Capacity     int           `yaml:"capacity" validate:"required|min:1"`
	MaxVisible   int           `yaml:"maxVisible" validate:"required|min:1"`
	Backoff      time.Duration `yaml:"backoff" validate:"required|min:1"`
	Lifetime     time.Duration `yaml:"lifetime" validate:"required|min:1"`
	ExitDelay    time.Duration `yaml:"exitDelay" validate:"required|min:1"`
	RedrainDelay time.Duration `yaml:"redrainDelay" validate:"required|min:1"`
}

type RetentionConfig struct {
	Hourly   time.Duration `yaml:"hourly" validate:"required|min:1"`
	Minutely time.Duration `yaml:"minutely" validate:"required|min:1"`
}

type Config struct {
	AppName       string
	Debug         bool
	Path          string
	WebServer     Server             `yaml:"webServer"`
	Persistence   Persistence        `yaml:"persistence"`
	Logger        LoggerConfig       `yaml:"logger"`
	Cache         CacheConfig        `yaml:"cache"`
	Metrics       MetricsConfig      `yaml:"metrics"`
	Sink          SinkConfig         `yaml:"sink"`
	Agent         AgentConfig        `yaml:"agent"`
	HotStreak     HotStreakConfig    `yaml:"hotStreak"`
	Notifications NotificationConfig `yaml:"notifications"`
	Retention     RetentionConfig    `yaml:"retention"`
}
