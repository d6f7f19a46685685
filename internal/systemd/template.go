package systemd

// DaemonTemplate returns the systemd unit for the tracewall spool daemon.
// The spool directories are the only writable paths; everything else is
// locked down so a compromised daemon cannot rewrite its own unit or the
// attestation baseline.
func DaemonTemplate() string {
	return `[Unit]
Description=tracewall spool daemon
After=network-online.target
Wants=network-online.target

[Service]
Type=simple
User=tracewall
ExecStart=/usr/local/bin/tracewall watch
Restart=on-failure
RestartSec=2
NoNewPrivileges=true
PrivateTmp=true
ProtectSystem=strict
ProtectHome=read-only
ProtectKernelTunables=true
RestrictNamespaces=true
MemoryDenyWriteExecute=true
ReadWritePaths=/home/tracewall/.tracewall
CPUQuota=30%
MemoryMax=512M
TasksMax=50

[Install]
WantedBy=multi-user.target
`
}
