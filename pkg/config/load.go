package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultConfigPath is where `lazymc config generate` writes the config
// file when --path is not given.
const DefaultConfigPath = "lazymc.toml"

// Load reads path (TOML) into viper, applies `.env` overrides if
// present, binds LAZYMC_-prefixed environment variables and unmarshals
// the result into a Config. Environment and `.env` loading happen
// before viper.Unmarshal so either can override a file value, matching
// the precedence order documented for the CLI surface.
func Load(path string) (Config, error) {
	cfg := Default()

	if err := loadDotEnv(cfg.Advanced.DotEnvPath); err != nil {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	v.SetEnvPrefix("lazymc")
	v.AutomaticEnv()

	setDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	// A second .env pass: the file may declare its own path.
	if cfg.Advanced.DotEnvPath != "" {
		if err := loadDotEnv(cfg.Advanced.DotEnvPath); err != nil {
			return Config{}, fmt.Errorf("loading .env: %w", err)
		}
	}

	return cfg, nil
}

// loadDotEnv loads path into the process environment if it exists;
// a missing .env file is not an error, it is simply absent.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("debug", cfg.Debug)
	v.SetDefault("network.public_address", cfg.Network.PublicAddress)
	v.SetDefault("network.backend_address", cfg.Network.BackendAddress)
	v.SetDefault("network.proxy_protocol_mode", cfg.Network.ProxyProtocolMode)
	v.SetDefault("server.start_command", cfg.Server.StartCommand)
	v.SetDefault("server.working_dir", cfg.Server.WorkingDir)
	v.SetDefault("server.send_stop_via_rcon", cfg.Server.SendStopViaRCON)
	v.SetDefault("server.rcon_port", cfg.Server.RCONPort)
	v.SetDefault("server.wake_on_crash", cfg.Server.WakeOnCrash)
	v.SetDefault("server.wake_on_start", cfg.Server.WakeOnStart)
	v.SetDefault("server.wake_on_status", cfg.Server.WakeOnStatus)
	v.SetDefault("server.forge_compat", cfg.Server.ForgeCompat)
	v.SetDefault("time.sleep_after_seconds", cfg.Timing.SleepAfterSeconds)
	v.SetDefault("time.start_timeout", cfg.Timing.StartTimeout)
	v.SetDefault("time.stop_timeout", cfg.Timing.StopTimeout)
	v.SetDefault("time.probe_interval_ms", cfg.Timing.ProbeIntervalMs)
	v.SetDefault("motd.sleeping", cfg.Motd.Sleeping)
	v.SetDefault("motd.starting", cfg.Motd.Starting)
	v.SetDefault("motd.stopping", cfg.Motd.Stopping)
	v.SetDefault("motd.favicon_path", cfg.Motd.FaviconPath)
	v.SetDefault("motd.kick_message", cfg.Motd.KickMessage)
	v.SetDefault("motd.version_name", cfg.Motd.VersionName)
	v.SetDefault("motd.protocol_version", cfg.Motd.ProtocolVersion)
	v.SetDefault("lobby.enabled", cfg.Lobby.Enabled)
	v.SetDefault("lobby.message", cfg.Lobby.Message)
	v.SetDefault("lobby.ready_sound", cfg.Lobby.ReadySound)
	v.SetDefault("lobby.timeout", cfg.Lobby.TimeoutSec)
	v.SetDefault("advanced.log_level", cfg.Advanced.LogLevel)
	v.SetDefault("advanced.dotenv_path", cfg.Advanced.DotEnvPath)
}
