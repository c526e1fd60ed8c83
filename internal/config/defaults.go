package config

const (
	defaultDataRoot           = "."
	defaultMappingStore       = "file"
	defaultHashLength         = 16
	defaultLockTimeoutSeconds = 600
	defaultSamplingType       = "uniform"
	defaultSamplingScope      = 1
	defaultFrameOrder         = "key_first"
	defaultRetryWarnAfter     = 5
	defaultFlipProb           = 0.5
	defaultScaleMin           = 1.0
	defaultScaleMax           = 1.0
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataRoot: defaultDataRoot,
		},
		Mapping: Mapping{
			UseCache:           true,
			Store:              defaultMappingStore,
			HashLength:         defaultHashLength,
			Serialize:          true,
			LockTimeoutSeconds: defaultLockTimeoutSeconds,
		},
		Sampling: Sampling{
			Type:       defaultSamplingType,
			Scope:      defaultSamplingScope,
			NumRefImgs: 0,
			FrameOrder: defaultFrameOrder,
		},
		Loader: Loader{
			Training:       true,
			RetryWarnAfter: defaultRetryWarnAfter,
		},
		Augment: Augment{
			FlipProb: defaultFlipProb,
			ScaleMin: defaultScaleMin,
			ScaleMax: defaultScaleMax,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
