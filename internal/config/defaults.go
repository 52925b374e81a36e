package config

const (
	defaultDataDir    = "~/.local/share/finback"
	defaultStorageDir = "~/.local/share/finback/storage"
	defaultLogDir     = "~/.local/share/finback/logs"
	defaultAPIBind    = "127.0.0.1:8187"
	defaultLogFormat  = "console"
	defaultLogLevel   = "info"

	defaultPollInterval       = 2
	defaultErrorRetryInterval = 10
	defaultStaleJobTimeout    = 600

	defaultModelName        = "multispecies_whale_fp16"
	defaultModelDisplayName = "Multispecies Whale FP16"
	defaultModelRuntime     = "synthetic"
	defaultInputFormat      = "spectrogram"
	defaultVectorDim        = 1280
	defaultWindowSeconds    = 5.0
	defaultSampleRate       = 32000
	defaultRequestTimeout   = 60
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:    defaultDataDir,
			StorageDir: defaultStorageDir,
			LogDir:     defaultLogDir,
			APIBind:    defaultAPIBind,
		},
		Worker: Worker{
			PollInterval:       defaultPollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			StaleJobTimeout:    defaultStaleJobTimeout,
		},
		Model: Model{
			DefaultName:    defaultModelName,
			DisplayName:    defaultModelDisplayName,
			Runtime:        defaultModelRuntime,
			InputFormat:    defaultInputFormat,
			VectorDim:      defaultVectorDim,
			WindowSeconds:  defaultWindowSeconds,
			SampleRate:     defaultSampleRate,
			RequestTimeout: defaultRequestTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
