package providers

import (
	"errors"
	"fmt"
	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"io/fs"
	"path/filepath"
	"statpulse/internal/structures"
	"strings"
	"time"
)

const appName = "statpulse"

var envBindings = map[string]string{
	"logger.level":        "STATPULSE_LOG_LEVEL",
	"agent.sinkUrl":       "STATPULSE_SINK_URL",
	"webServer.port":      "STATPULSE_PORT",
	"hotStreak.increases": "STATPULSE_HOT_INCREASES",
	"hotStreak.window":    "STATPULSE_HOT_WINDOW",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("webServer.host", "0.0.0.0")
	v.SetDefault("webServer.port", 6767)

	v.SetDefault("persistence.filePath", "/tmp/statpulse.dat")
	v.SetDefault("persistence.saveInterval", 30*time.Second)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.mode", 0644)
	v.SetDefault("logger.dir", "/tmp")

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.size", 4)
	v.SetDefault("cache.ttl", 2*time.Second)

	v.SetDefault("sink.heartbeatTimeout", 60*time.Second)
	v.SetDefault("sink.sweepInterval", 10*time.Second)
	v.SetDefault("sink.maxNotifications", 50)

	v.SetDefault("agent.sinkUrl", "http://localhost:6767")
	v.SetDefault("agent.enabled", true)
	v.SetDefault("agent.heartbeatInterval", 30*time.Second)
	v.SetDefault("agent.requestTimeout", 10*time.Second)
	v.SetDefault("agent.buildInterval", 250*time.Millisecond)
	v.SetDefault("agent.maxBodySize", 8<<20)

	v.SetDefault("hotStreak.increases", 5)
	v.SetDefault("hotStreak.window", 5*time.Minute)

	v.SetDefault("notifications.capacity", 20)
	v.SetDefault("notifications.maxVisible", 10)
	v.SetDefault("notifications.backoff", 500*time.Millisecond)
	v.SetDefault("notifications.lifetime", 4*time.Second)
	v.SetDefault("notifications.exitDelay", 300*time.Millisecond)
	v.SetDefault("notifications.redrainDelay", 100*time.Millisecond)

	v.SetDefault("retention.hourly", 48*time.Hour)
	v.SetDefault("retention.minutely", 60*time.Minute)
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	setDefaults(v)
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}
	return v
}

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	// An optional .env next to the config file feeds the STATPULSE_* bindings.
	if err := godotenv.Load(filepath.Join(filepath.Dir(flags.ConfigPath), ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := newViper(flags.ConfigPath)
	err := v.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = v.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	if flags.Port > 0 {
		conf.WebServer.Port = flags.Port
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = appName
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}

// WatchHotStreak re-reads the hotStreak section whenever the config file
// changes and hands valid values to apply.
func WatchHotStreak(conf *structures.Config, logger Logger, apply func(structures.HotStreakConfig)) error {
	v := newViper(conf.Path)
	if err := v.ReadInConfig(); err != nil {
		return err
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		logger.Infof(TypeApp, "Config changed (%s): %s", strings.ToLower(e.Op.String()), e.Name)
		reloadHotStreak(v, logger, apply)
	})
	v.WatchConfig()
	return nil
}

func reloadHotStreak(v *viper.Viper, logger Logger, apply func(structures.HotStreakConfig)) bool {
	var hs structures.HotStreakConfig
	if err := v.UnmarshalKey("hotStreak", &hs); err != nil {
		logger.Errorf(TypeApp, "Unable to decode hotStreak section: %s", err)
		return false
	}
	if hs.Increases < 1 || hs.Window <= 0 {
		logger.Warnf(TypeApp, "Ignoring invalid hotStreak section: increases=%d window=%s", hs.Increases, hs.Window)
		return false
	}
	apply(hs)
	logger.Infof(TypeApp, "Hot streak set to %d increases in %s", hs.Increases, hs.Window)
	return true
}
