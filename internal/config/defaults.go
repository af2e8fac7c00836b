package config

const (
	defaultDataDir                     = "~/.local/share/backstage/data"
	defaultLogDir                      = "~/.local/share/backstage/logs"
	defaultAPIBind                     = "127.0.0.1:8723"
	defaultStage                       = "Amigo"
	defaultFeedRequestTimeout          = 30
	defaultWebsiteRequestTimeout       = 30
	defaultActsIntervalMinutes         = 10
	defaultDescriptionsIntervalMinutes = 60
	defaultMatchingThreshold           = 0.8
	defaultNotifyRequestTimeout        = 10
	defaultLogFormat                   = "text"
	defaultLogLevel                    = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Feed: Feed{
			RequestTimeout: defaultFeedRequestTimeout,
		},
		Website: Website{
			Stage:          defaultStage,
			RequestTimeout: defaultWebsiteRequestTimeout,
		},
		Refresh: Refresh{
			Enabled:                     false,
			ActsIntervalMinutes:         defaultActsIntervalMinutes,
			DescriptionsIntervalMinutes: defaultDescriptionsIntervalMinutes,
		},
		Matching: Matching{
			Threshold: defaultMatchingThreshold,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
