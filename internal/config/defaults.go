package config

const (
	defaultDataDir               = "~/.local/share/hiretrack"
	defaultLogDir                = "~/.local/share/hiretrack/logs"
	defaultDocumentsDir          = "~/.local/share/hiretrack/documents"
	defaultEnvFile               = "~/.config/hiretrack/.env"
	defaultDatabaseName          = "hiretrack.db"
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultNotifySink            = "log"
	defaultNtfyServer            = "https://ntfy.sh"
	defaultNotifyRequestTimeout  = 10
	defaultNotifyRatePerMinute   = 60
	defaultAnonymizeCutoffMonths = 12
	defaultSweepInterval         = 300
	defaultDispatchInterval      = 10
	defaultDispatchBatch         = 50
	defaultDispatchMaxAttempts   = 8
	defaultRecentlyClosedDays    = 7
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:      defaultDataDir,
			LogDir:       defaultLogDir,
			DocumentsDir: defaultDocumentsDir,
			EnvFile:      defaultEnvFile,
		},
		Notifications: Notifications{
			Sink:           defaultNotifySink,
			NtfyServer:     defaultNtfyServer,
			RequestTimeout: defaultNotifyRequestTimeout,
			RatePerMinute:  defaultNotifyRatePerMinute,
		},
		Anonymize: Anonymize{
			CutoffMonths: defaultAnonymizeCutoffMonths,
			SkipHired:    true,
		},
		Workflow: Workflow{
			SweepInterval:    defaultSweepInterval,
			DispatchInterval: defaultDispatchInterval,
			DispatchBatch:    defaultDispatchBatch,
			MaxAttempts:      defaultDispatchMaxAttempts,
		},
		Dashboard: Dashboard{
			RecentlyClosedDays: defaultRecentlyClosedDays,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
