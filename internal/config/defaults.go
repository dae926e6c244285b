package config

const (
	defaultDataDir            = "~/.local/share/fischpipe"
	defaultSourceA            = "wiki"
	defaultSourceB            = "fischipedia"
	defaultFetchConcurrency   = 8
	defaultFetchTimeout       = 15
	defaultFetchRetries       = 4
	defaultFetchRetryBaseMS   = 500
	defaultFetchRetryMaxMS    = 8000
	defaultFetchRate          = 5
	defaultUserAgent          = "fischpipe/0.1 (+corpus pipeline)"
	defaultStepTimeoutSeconds = 900
	defaultTailBytes          = 4096
	defaultEnrichWorkers      = 8
	defaultKeepChanceBelow    = 5
	defaultCoverageFloor      = 25
	defaultRatioCeiling       = 100
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// DefaultEntities lists the entity kinds the pipeline processes, in step order.
var DefaultEntities = []string{"fish", "mutations", "rods", "locations"}

// DefaultAlwaysKeep lists rarities the enricher always recommends keeping.
var DefaultAlwaysKeep = []string{"Mythical", "Exotic", "Secret", "Limited", "Divine"}

// DefaultConditionalKeep lists rarities kept only when their catch chance is low.
var DefaultConditionalKeep = []string{"Legendary"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
		},
		Sources: Sources{
			A: defaultSourceA,
			B: defaultSourceB,
		},
		Fetch: Fetch{
			Concurrency:    defaultFetchConcurrency,
			TimeoutSeconds: defaultFetchTimeout,
			RetryAttempts:  defaultFetchRetries,
			RetryBaseMS:    defaultFetchRetryBaseMS,
			RetryMaxMS:     defaultFetchRetryMaxMS,
			RatePerSecond:  defaultFetchRate,
			UserAgent:      defaultUserAgent,
		},
		Pipeline: Pipeline{
			Entities:           append([]string(nil), DefaultEntities...),
			StepTimeoutSeconds: defaultStepTimeoutSeconds,
			TailBytes:          defaultTailBytes,
			Publish:            true,
		},
		Enrich: Enrich{
			Concurrency:     defaultEnrichWorkers,
			AlwaysKeep:      append([]string(nil), DefaultAlwaysKeep...),
			ConditionalKeep: append([]string(nil), DefaultConditionalKeep...),
			KeepChanceBelow: defaultKeepChanceBelow,
		},
		Validation: Validation{
			CoverageFloor: defaultCoverageFloor,
			RatioCeiling:  defaultRatioCeiling,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
