//go:build !js
// +build !js

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/simukka/tablesound/audio"
	"github.com/spf13/viper"
)

// Config holds soundcheck settings, read from flags, SOUNDCHECK_* variables
// and an optional YAML file in that order of precedence.
type Config struct {
	SoundBaseURL string       `mapstructure:"sound_base_url"`
	Origin       string       `mapstructure:"origin"` // fetch "/..." names from this host
	Verbose      bool         `mapstructure:"verbose"`
	Volume       VolumeConfig `mapstructure:"volume"`
}

// VolumeConfig sets the bus levels, each in [0, 1].
type VolumeConfig struct {
	Effects  float64 `mapstructure:"effects"`
	Music    float64 `mapstructure:"music"`
	Ambience float64 `mapstructure:"ambience"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		SoundBaseURL: audio.DefaultSoundBaseURL,
		Volume: VolumeConfig{
			Effects:  audio.DefaultEffectsVolume,
			Music:    audio.DefaultMusicVolume,
			Ambience: audio.DefaultAmbienceVolume,
		},
	}
}

// newViper returns a viper instance with defaults and environment lookup.
func newViper() *viper.Viper {
	v := viper.New()
	d := Defaults()
	v.SetDefault("sound_base_url", d.SoundBaseURL)
	v.SetDefault("origin", d.Origin)
	v.SetDefault("verbose", d.Verbose)
	v.SetDefault("volume.effects", d.Volume.Effects)
	v.SetDefault("volume.music", d.Volume.Music)
	v.SetDefault("volume.ambience", d.Volume.Ambience)

	v.SetEnvPrefix("soundcheck")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// loadConfig reads path, or soundcheck.yaml from the working directory and
// the user config directory when path is empty. A missing default file is
// not an error.
func loadConfig(v *viper.Viper, path string) (Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("soundcheck")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "soundcheck"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

// apply sets the engine bus levels.
func (c Config) apply(e *audio.Engine) {
	e.SetVolume(audio.BusEffects, c.Volume.Effects)
	e.SetVolume(audio.BusMusic, c.Volume.Music)
	e.SetVolume(audio.BusAmbience, c.Volume.Ambience)
}
