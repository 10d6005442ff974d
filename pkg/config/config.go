// Package config owns lazymc's on-disk configuration: the TOML file
// loaded by viper, overlaid with `.env` overrides, and the validated,
// immutable-per-run Config struct the rest of the proxy consumes. The
// shape and load order mirror the teacher proxy's cmd/gate.Run, which
// unmarshals viper into a struct and validates it before anything else
// starts.
package config

import (
	"fmt"
	"time"
)

// Config is lazymc's full, immutable-per-run configuration. A reload
// replaces the whole value behind an atomic pointer swap (see
// pkg/server); nothing here is mutated in place after load.
type Config struct {
	Debug bool `mapstructure:"debug"`

	Network  Network  `mapstructure:"network"`
	Server   Server   `mapstructure:"server"`
	Timing   Timing   `mapstructure:"time"`
	Motd     Motd     `mapstructure:"motd"`
	Lobby    Lobby    `mapstructure:"lobby"`
	Advanced Advanced `mapstructure:"advanced"`
}

// Network describes the proxy's listening and backend addresses.
type Network struct {
	PublicAddress     string `mapstructure:"public_address"`
	BackendAddress    string `mapstructure:"backend_address"`
	ProxyProtocolMode string `mapstructure:"proxy_protocol_mode"` // "", "send", "receive"
}

// Server describes how the backend process is started and stopped.
type Server struct {
	StartCommand   string `mapstructure:"start_command"`
	WorkingDir     string `mapstructure:"working_dir"`
	SendStopViaRCON bool  `mapstructure:"send_stop_via_rcon"`
	RCONPassword   string `mapstructure:"rcon_password"`
	RCONPort       int    `mapstructure:"rcon_port"`
	WakeOnCrash    bool   `mapstructure:"wake_on_crash"`
	WakeOnStart    bool   `mapstructure:"wake_on_start"`
	WakeOnStatus   bool   `mapstructure:"wake_on_status"`
	ForgeCompat    bool   `mapstructure:"forge_compat"`
}

// Timing describes idle, start and stop deadlines, in seconds.
type Timing struct {
	SleepAfterSeconds int `mapstructure:"sleep_after_seconds"`
	StartTimeout      int `mapstructure:"start_timeout"`
	StopTimeout       int `mapstructure:"stop_timeout"`
	ProbeIntervalMs   int `mapstructure:"probe_interval_ms"`
}

func (t Timing) SleepAfter() time.Duration  { return time.Duration(t.SleepAfterSeconds) * time.Second }
func (t Timing) StartDeadline() time.Duration { return time.Duration(t.StartTimeout) * time.Second }
func (t Timing) StopDeadline() time.Duration  { return time.Duration(t.StopTimeout) * time.Second }
func (t Timing) ProbeInterval() time.Duration {
	return time.Duration(t.ProbeIntervalMs) * time.Millisecond
}

// Motd describes the presentation layer of the status responder.
type Motd struct {
	Sleeping        string `mapstructure:"sleeping"`
	Starting        string `mapstructure:"starting"`
	Stopping        string `mapstructure:"stopping"`
	FaviconPath     string `mapstructure:"favicon_path"`
	KickMessage     string `mapstructure:"kick_message"`
	VersionName     string `mapstructure:"version_name"`
	ProtocolVersion int    `mapstructure:"protocol_version"`
}

// Lobby describes the optional fake-lobby hold experience.
type Lobby struct {
	Enabled    bool   `mapstructure:"enabled"`
	Message    string `mapstructure:"message"`
	ReadySound bool   `mapstructure:"ready_sound"`
	TimeoutSec int    `mapstructure:"timeout"`
}

func (l Lobby) Timeout() time.Duration { return time.Duration(l.TimeoutSec) * time.Second }

// Advanced holds ambient/operational knobs that don't belong to the
// player-facing sections above.
type Advanced struct {
	LogLevel   string `mapstructure:"log_level"`
	DotEnvPath string `mapstructure:"dotenv_path"`
}

// Default returns the configuration written by `lazymc config generate`
// and used as the baseline before a file or environment overrides are
// applied.
func Default() Config {
	return Config{
		Network: Network{
			PublicAddress:  "0.0.0.0:25565",
			BackendAddress: "127.0.0.1:25566",
		},
		Server: Server{
			StartCommand: "java -Xmx1G -jar server.jar nogui",
			WorkingDir:   ".",
			RCONPort:     25575,
			WakeOnCrash:  true,
		},
		Timing: Timing{
			SleepAfterSeconds: 300,
			StartTimeout:      300,
			StopTimeout:       30,
			ProbeIntervalMs:    200,
		},
		Motd: Motd{
			Sleeping:        "☠ Server is sleeping, join to start it up",
			Starting:        "⏳ Server is starting, please wait...",
			Stopping:        "💤 Server is going back to sleep...",
			KickMessage:     "Server is starting, please reconnect in a moment",
			VersionName:     "1.20.4",
			ProtocolVersion: 765,
		},
		Lobby: Lobby{
			Enabled:    true,
			Message:    "Server is starting...",
			TimeoutSec: 60,
		},
		Advanced: Advanced{
			LogLevel:   "info",
			DotEnvPath: ".env",
		},
	}
}

// Validate checks a loaded Config for internal consistency. ConfigError
// is fatal only at startup, per the error handling design: it never
// propagates to a running proxy.
func Validate(cfg *Config) error {
	if cfg.Network.PublicAddress == "" {
		return fmt.Errorf("config: network.public_address must be set")
	}
	if cfg.Network.BackendAddress == "" {
		return fmt.Errorf("config: network.backend_address must be set")
	}
	if cfg.Server.StartCommand == "" {
		return fmt.Errorf("config: server.start_command must be set")
	}
	switch cfg.Network.ProxyProtocolMode {
	case "", "send", "receive":
	default:
		return fmt.Errorf("config: network.proxy_protocol_mode must be one of \"\", \"send\", \"receive\"")
	}
	if cfg.Timing.SleepAfterSeconds < 0 {
		return fmt.Errorf("config: time.sleep_after_seconds must be >= 0")
	}
	if cfg.Timing.StartTimeout <= 0 {
		return fmt.Errorf("config: time.start_timeout must be > 0")
	}
	if cfg.Timing.StopTimeout <= 0 {
		return fmt.Errorf("config: time.stop_timeout must be > 0")
	}
	if cfg.Server.SendStopViaRCON && cfg.Server.RCONPassword == "" {
		return fmt.Errorf("config: server.rcon_password must be set when send_stop_via_rcon is enabled")
	}
	return nil
}
