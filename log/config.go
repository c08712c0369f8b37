package log

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
	"moul.io/zapfilter"
)

// Config maps logger names to levels. Example:
//
//	defaultLevel: info
//	loggers:
//	  blocks: debug
//	  analysis.overtakes: warn
type Config struct {
	DefaultLevel string            `yaml:"defaultLevel"`
	Loggers      map[string]string `yaml:"loggers"`
}

type namedLevel struct {
	name  string
	level Level
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(data)
}

func ParseConfig(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse log config: %w", err)
	}
	if _, err := cfg.compile(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MinLevel is the lowest level any configured logger may emit.
// The core level must not be higher than this, otherwise the filter never sees
// the entries.
func (c *Config) MinLevel(fallback Level) Level {
	lowest := fallback
	rules, err := c.compile()
	if err != nil {
		return fallback
	}
	for _, r := range rules {
		if r.level < lowest {
			lowest = r.level
		}
	}
	return lowest
}

// compile returns the rules, longest name first. The entry "" holds the default.
func (c *Config) compile() ([]namedLevel, error) {
	ret := []namedLevel{}
	if c.DefaultLevel != "" {
		l, err := ParseLevel(c.DefaultLevel)
		if err != nil {
			return nil, fmt.Errorf("default level: %w", err)
		}
		ret = append(ret, namedLevel{name: "", level: l})
	}
	for name, lvl := range c.Loggers {
		l, err := ParseLevel(lvl)
		if err != nil {
			return nil, fmt.Errorf("level for logger %s: %w", name, err)
		}
		ret = append(ret, namedLevel{name: name, level: l})
	}
	sort.Slice(ret, func(i, j int) bool { return len(ret[i].name) > len(ret[j].name) })
	return ret, nil
}

func (c *Config) filter(fallback Level) zapfilter.FilterFunc {
	rules, err := c.compile()
	if err != nil {
		rules = nil
	}
	return func(entry zapcore.Entry, _ []zapcore.Field) bool {
		for _, r := range rules {
			if r.name == "" || entry.LoggerName == r.name ||
				strings.HasPrefix(entry.LoggerName, r.name+".") {
				return entry.Level >= r.level
			}
		}
		return entry.Level >= fallback
	}
}

// WithConfig wraps the logger core with a per-logger level filter.
func WithConfig(cfg *Config, fallback Level) Option {
	return zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapfilter.NewFilteringCore(core, cfg.filter(fallback))
	})
}
