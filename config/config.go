// Package config loads the engine configuration from defaults, an optional
// YAML file and LLTREE_<SECTION>_<KEY> environment variables, in increasing
// order of precedence.
package config

import (
	"log/slog"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const EnvPrefix = "LLTREE"

type Config struct {
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	Engine   EngineConfig   `mapstructure:"engine" yaml:"engine"`
	WAL      WALConfig      `mapstructure:"wal" yaml:"wal"`
	Outbox   OutboxConfig   `mapstructure:"outbox" yaml:"outbox"`
	Snapshot SnapshotConfig `mapstructure:"snapshot" yaml:"snapshot"`
	Kafka    KafkaConfig    `mapstructure:"kafka" yaml:"kafka"`
	GRPC     GRPCConfig     `mapstructure:"grpc" yaml:"grpc"`
	Metrics  MetricsConfig  `mapstructure:"metrics" yaml:"metrics"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type EngineConfig struct {
	RetireRingSize    uint64        `mapstructure:"retire_ring_size" yaml:"retire_ring_size"`
	ReclaimInterval   time.Duration `mapstructure:"reclaim_interval" yaml:"reclaim_interval"`
	VerifyEachCommand bool          `mapstructure:"verify_each_command" yaml:"verify_each_command"`
}

type WALConfig struct {
	Dir             string        `mapstructure:"dir" yaml:"dir"`
	SegmentSize     int64         `mapstructure:"segment_size" yaml:"segment_size"`
	SegmentDuration time.Duration `mapstructure:"segment_duration" yaml:"segment_duration"`
	SyncEachAppend  bool          `mapstructure:"sync_each_append" yaml:"sync_each_append"`
}

type OutboxConfig struct {
	Dir  string `mapstructure:"dir" yaml:"dir"`
	Sync bool   `mapstructure:"sync" yaml:"sync"`
}

type SnapshotConfig struct {
	Dir      string        `mapstructure:"dir" yaml:"dir"`
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
}

type KafkaConfig struct {
	Enabled    bool          `mapstructure:"enabled" yaml:"enabled"`
	Client     string        `mapstructure:"client" yaml:"client"`
	Brokers    []string      `mapstructure:"brokers" yaml:"brokers"`
	Topic      string        `mapstructure:"topic" yaml:"topic"`
	Interval   time.Duration `mapstructure:"interval" yaml:"interval"`
	BatchSize  int           `mapstructure:"batch_size" yaml:"batch_size"`
	MaxRetries uint32        `mapstructure:"max_retries" yaml:"max_retries"`
}

type GRPCConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr    string `mapstructure:"addr" yaml:"addr"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("engine.retire_ring_size", 1<<18)
	v.SetDefault("engine.reclaim_interval", 2*time.Second)
	v.SetDefault("engine.verify_each_command", false)

	v.SetDefault("wal.dir", "./wal_entry")
	v.SetDefault("wal.segment_size", 2*1024*1024)
	v.SetDefault("wal.segment_duration", time.Minute)
	v.SetDefault("wal.sync_each_append", false)

	v.SetDefault("outbox.dir", "./wal_exit")
	v.SetDefault("outbox.sync", true)

	v.SetDefault("snapshot.dir", "./snapshots")
	v.SetDefault("snapshot.interval", 30*time.Second)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.client", "sarama")
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "lltree.fills")
	v.SetDefault("kafka.interval", 250*time.Millisecond)
	v.SetDefault("kafka.batch_size", 256)
	v.SetDefault("kafka.max_retries", 10)

	v.SetDefault("grpc.addr", ":50051")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.addr", ":9090")
}

// Load reads the configuration. path may be empty.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "config: read %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "config: decode")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration with nothing overridden.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(err)
	}
	return &cfg
}

func (c *Config) Validate() error {
	var errs []error
	if n := c.Engine.RetireRingSize; n == 0 || n&(n-1) != 0 {
		errs = append(errs, errors.Newf("engine.retire_ring_size %d is not a power of two", n))
	}
	if c.Engine.ReclaimInterval <= 0 {
		errs = append(errs, errors.Newf("engine.reclaim_interval %s must be positive", c.Engine.ReclaimInterval))
	}
	if c.WAL.Dir == "" {
		errs = append(errs, errors.New("wal.dir is empty"))
	}
	if c.WAL.SegmentSize <= 0 {
		errs = append(errs, errors.Newf("wal.segment_size %d must be positive", c.WAL.SegmentSize))
	}
	if c.Outbox.Dir == "" {
		errs = append(errs, errors.New("outbox.dir is empty"))
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			errs = append(errs, errors.New("kafka.brokers is empty"))
		}
		if c.Kafka.Client != "sarama" && c.Kafka.Client != "kafka-go" {
			errs = append(errs, errors.Newf("kafka.client %q is not sarama or kafka-go", c.Kafka.Client))
		}
		if c.Kafka.Interval <= 0 || c.Kafka.BatchSize <= 0 {
			errs = append(errs, errors.New("kafka.interval and kafka.batch_size must be positive"))
		}
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Wrap(errors.Join(errs...), "config: invalid")
}

// YAML renders the configuration.
func (c *Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c)
	return out, errors.Wrap(err, "config: encode yaml")
}

func (l LogConfig) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, errors.Wrapf(err, "log.level %q", l.Level)
	}
	return lvl, nil
}
