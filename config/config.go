// Package config loads corrector and model settings from a YAML file and
// LVLARC_* environment variables and turns them into corrector options.
//
// Keys (defaults in parentheses):
//
//	tolerance         (0, use the arcset's)   max_iterations (20)
//	tof_mode          (FREE)                  allow_divergence (false)
//	parallelism       (1)
//	log.level         (info)                  log.format (text)
//	model.name        (drift)                 model.mu (1)
//	model.forcing     ([])                    model.max_step (1e-2)
//
// Nested keys map to environment variables with "_" for ".", e.g.
// LVLARC_LOG_LEVEL=debug.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/katalvlaran/lvlarc/corrector"
	"github.com/katalvlaran/lvlarc/dynamics"
)

// EnvPrefix is the environment-variable prefix.
const EnvPrefix = "LVLARC"

// ErrInvalidSettings indicates a value outside its allowed range.
var ErrInvalidSettings = errors.New("config: invalid settings")

// LogSettings selects the slog handler.
type LogSettings struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ModelSettings selects and parameterises a reference model.
type ModelSettings struct {
	Name    string    `mapstructure:"name"`
	Mu      float64   `mapstructure:"mu"`
	Forcing []float64 `mapstructure:"forcing"`
	MaxStep float64   `mapstructure:"max_step"`
}

// Settings holds everything a correction run needs besides the arcset.
type Settings struct {
	Tolerance       float64       `mapstructure:"tolerance"`
	MaxIterations   int           `mapstructure:"max_iterations"`
	TOFMode         string        `mapstructure:"tof_mode"`
	AllowDivergence bool          `mapstructure:"allow_divergence"`
	Parallelism     int           `mapstructure:"parallelism"`
	Log             LogSettings   `mapstructure:"log"`
	Model           ModelSettings `mapstructure:"model"`
}

// New returns a viper instance with defaults and environment binding set up.
// A non-empty file is read as YAML; a missing file is an error.
func New(file string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", file, err)
		}
	}

	return v, nil
}

// SetDefaults registers the built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("tolerance", 0.0)
	v.SetDefault("max_iterations", corrector.DefaultMaxIterations)
	v.SetDefault("tof_mode", corrector.TOFFree.String())
	v.SetDefault("allow_divergence", false)
	v.SetDefault("parallelism", corrector.DefaultParallelism)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("model.name", dynamics.DriftName)
	v.SetDefault("model.mu", 1.0)
	v.SetDefault("model.forcing", []float64{})
	v.SetDefault("model.max_step", dynamics.DefaultMaxStep)
}

// Load decodes the settings held by v.
func Load(v *viper.Viper) (Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("config: decode: %w", err)
	}

	return s, nil
}

// Options converts the settings into corrector options. Values the option
// constructors would panic on are reported as ErrInvalidSettings instead.
func (s Settings) Options(logger *slog.Logger) ([]corrector.Option, error) {
	mode, err := corrector.ParseTOFMode(s.TOFMode)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	if s.Tolerance < 0 {
		return nil, fmt.Errorf("%w: tolerance %g", ErrInvalidSettings, s.Tolerance)
	}
	if s.MaxIterations < 1 {
		return nil, fmt.Errorf("%w: max_iterations %d", ErrInvalidSettings, s.MaxIterations)
	}
	if s.Parallelism < 1 {
		return nil, fmt.Errorf("%w: parallelism %d", ErrInvalidSettings, s.Parallelism)
	}

	opts := []corrector.Option{
		corrector.WithTOFMode(mode),
		corrector.WithMaxIterations(s.MaxIterations),
		corrector.WithParallelism(s.Parallelism),
		corrector.WithLogger(logger),
	}
	if s.Tolerance > 0 {
		opts = append(opts, corrector.WithTolerance(s.Tolerance))
	}
	if s.AllowDivergence {
		opts = append(opts, corrector.WithAllowDivergence())
	}

	return opts, nil
}

// Logger builds a text or JSON slog logger writing to w.
func (s Settings) Logger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s.Log.Level)); err != nil {
		return nil, fmt.Errorf("%w: log.level %q", ErrInvalidSettings, s.Log.Level)
	}
	hopts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(s.Log.Format) {
	case "text", "":
		return slog.New(slog.NewTextHandler(w, hopts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, hopts)), nil
	default:
		return nil, fmt.Errorf("%w: log.format %q", ErrInvalidSettings, s.Log.Format)
	}
}

// NewModel builds the configured reference model.
func (s Settings) NewModel() (corrector.Model, error) {
	m := s.Model
	switch m.Name {
	case dynamics.DriftName:
		var opts []dynamics.DriftOption
		switch len(m.Forcing) {
		case 0:
		case 3:
			opts = append(opts, dynamics.WithForcing([3]float64{m.Forcing[0], m.Forcing[1], m.Forcing[2]}))
		default:
			return nil, fmt.Errorf("%w: model.forcing needs 3 entries, got %d", ErrInvalidSettings, len(m.Forcing))
		}
		return dynamics.NewDrift(opts...), nil
	case dynamics.TwoBodyName:
		if !(m.Mu > 0) {
			return nil, fmt.Errorf("%w: model.mu %g", ErrInvalidSettings, m.Mu)
		}
		if !(m.MaxStep > 0) {
			return nil, fmt.Errorf("%w: model.max_step %g", ErrInvalidSettings, m.MaxStep)
		}
		return dynamics.NewTwoBody(m.Mu, dynamics.WithMaxStep(m.MaxStep)), nil
	default:
		return nil, fmt.Errorf("%w: unknown model %q", ErrInvalidSettings, m.Name)
	}
}
