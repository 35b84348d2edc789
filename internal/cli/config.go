package cli

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/specgraph/pkg/embed"
	"github.com/matzehuels/specgraph/pkg/errors"
	"github.com/matzehuels/specgraph/pkg/pipeline"
)

// configFile is looked up in the working directory when --config is unset.
const configFile = "specgraph.toml"

// Cache backends accepted in [cache] backend.
const (
	backendFile  = "file"
	backendRedis = "redis"
	backendNone  = "none"
)

// Config mirrors specgraph.toml. Zero values mean "use the default".
type Config struct {
	K           int    `toml:"k"`
	SkipTrivial *bool  `toml:"skip_trivial"`
	Which       string `toml:"which"`
	Workers     int    `toml:"workers"`
	Scale       int    `toml:"scale"`
	Width       int    `toml:"width"`
	Height      int    `toml:"height"`
	Background  string `toml:"background"`
	EdgeColor   string `toml:"edge_color"`

	Cache CacheConfig `toml:"cache"`
	Serve ServeConfig `toml:"serve"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	Backend       string `toml:"backend"`
	Dir           string `toml:"dir"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	Prefix        string `toml:"prefix"`
}

// ServeConfig configures the job service.
type ServeConfig struct {
	Addr            string `toml:"addr"`
	MaxJobs         int    `toml:"max_jobs"`
	MaxQueued       int    `toml:"max_queued"`
	DataDir         string `toml:"data_dir"`
	ShutdownTimeout string `toml:"shutdown_timeout"`
}

const (
	defaultAddr            = ":8080"
	defaultShutdownTimeout = 30 * time.Second
)

// loadConfig reads the config file. An explicit path must exist; otherwise
// specgraph.toml in workdir is used when present. Unknown keys are errors.
func loadConfig(path, workdir string) (Config, string, error) {
	var cfg Config
	if path == "" {
		if workdir == "" {
			return cfg, "", nil
		}
		candidate := filepath.Join(workdir, configFile)
		if _, err := os.Stat(candidate); err != nil {
			return cfg, "", nil
		}
		path = candidate
	} else if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, "", errors.New(errors.ErrCodeFileNotFound, "config file %s does not exist", path)
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, "", errors.Wrap(errors.ErrCodeConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, "", errors.New(errors.ErrCodeConfig, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return cfg, path, nil
}

// pipelineOptions converts the file values into pipeline options on top of
// pipeline.DefaultOptions.
func (c Config) pipelineOptions() (pipeline.Options, error) {
	opts := pipeline.DefaultOptions()
	if c.K != 0 {
		opts.K = c.K
	}
	if c.SkipTrivial != nil {
		opts.SkipTrivial = *c.SkipTrivial
	}
	if c.Which != "" {
		w, err := embed.ParseWhich(c.Which)
		if err != nil {
			return opts, errors.Wrap(errors.ErrCodeConfig, err, "which")
		}
		opts.Which = w
	}
	if c.Workers != 0 {
		opts.Workers = c.Workers
	}
	if c.Scale != 0 {
		opts.Scale = c.Scale
	}
	opts.Width, opts.Height = c.Width, c.Height
	if c.Background != "" {
		bg, err := pipeline.ParseHexColor(c.Background)
		if err != nil {
			return opts, err
		}
		opts.Background = bg
	}
	if c.EdgeColor != "" {
		ec, err := pipeline.ParseHexColor(c.EdgeColor)
		if err != nil {
			return opts, err
		}
		opts.EdgeColor = ec
	}
	return opts, nil
}

func (c ServeConfig) shutdownTimeout() (time.Duration, error) {
	if c.ShutdownTimeout == "" {
		return defaultShutdownTimeout, nil
	}
	d, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeConfig, err, "shutdown_timeout")
	}
	return d, nil
}
