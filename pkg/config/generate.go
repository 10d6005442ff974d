package config

import (
	"fmt"
	"os"
)

// template is the commented TOML template written by `lazymc config
// generate`. It is hand-written rather than marshalled so comments can
// explain each option inline, matching how lazymc's upstream generator
// documents its config file.
const template = `# lazymc configuration file

debug = %t

[network]
# Address lazymc listens on for incoming client connections.
public_address = %q
# Address of the real Minecraft server lazymc manages.
backend_address = %q
# "", "send" or "receive": PROXY protocol v2 handling. Only "receive"
# (accept a PROXY header on incoming connections) has an effect; "send"
# is accepted but no header is written to the backend.
proxy_protocol_mode = %q

[server]
start_command = %q
working_dir = %q
send_stop_via_rcon = %t
rcon_password = %q
rcon_port = %d
wake_on_crash = %t
wake_on_start = %t
wake_on_status = %t
forge_compat = %t

[time]
sleep_after_seconds = %d
start_timeout = %d
stop_timeout = %d
probe_interval_ms = %d

[motd]
sleeping = %q
starting = %q
stopping = %q
# Path to a 64x64 (or any size; it is resized) PNG shown as the server
# icon in the client's server list. Empty disables the favicon.
favicon_path = %q
kick_message = %q
version_name = %q
protocol_version = %d

[lobby]
enabled = %t
message = %q
ready_sound = %t
timeout = %d

[advanced]
log_level = %q
dotenv_path = %q
`

// Generate renders the default configuration as commented TOML and
// writes it to path, refusing to overwrite an existing file unless
// force is set.
func Generate(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config: %s already exists, use --force to overwrite", path)
		}
	}

	cfg := Default()
	contents := fmt.Sprintf(template,
		cfg.Debug,
		cfg.Network.PublicAddress, cfg.Network.BackendAddress, cfg.Network.ProxyProtocolMode,
		cfg.Server.StartCommand, cfg.Server.WorkingDir, cfg.Server.SendStopViaRCON,
		cfg.Server.RCONPassword, cfg.Server.RCONPort, cfg.Server.WakeOnCrash,
		cfg.Server.WakeOnStart, cfg.Server.WakeOnStatus, cfg.Server.ForgeCompat,
		cfg.Timing.SleepAfterSeconds, cfg.Timing.StartTimeout, cfg.Timing.StopTimeout, cfg.Timing.ProbeIntervalMs,
		cfg.Motd.Sleeping, cfg.Motd.Starting, cfg.Motd.Stopping, cfg.Motd.FaviconPath, cfg.Motd.KickMessage,
		cfg.Motd.VersionName, cfg.Motd.ProtocolVersion,
		cfg.Lobby.Enabled, cfg.Lobby.Message, cfg.Lobby.ReadySound, cfg.Lobby.TimeoutSec,
		cfg.Advanced.LogLevel, cfg.Advanced.DotEnvPath,
	)
	return os.WriteFile(path, []byte(contents), 0o644)
}
