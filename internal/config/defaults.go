package config

const (
	defaultCatalogPath      = "~/.losslessvault/catalog.db"
	defaultLogDir           = "~/.losslessvault/logs"
	defaultConfigPath       = "~/.config/lsvault/config.toml"
	projectConfigName       = "lsvault.toml"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultHashWorkers      = 0
	defaultPerceptual       = true
	defaultExifTool         = true
	defaultVerifyCopies     = false
	defaultMinFreeMiB       = 512
	defaultExportQuality    = 85
	defaultExportConverter  = "sips"
	defaultConverterTimeout = 120
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			Catalog: defaultCatalogPath,
			LogDir:  defaultLogDir,
		},
		Hashing: Hashing{
			Workers:    defaultHashWorkers,
			Perceptual: defaultPerceptual,
			ExifTool:   defaultExifTool,
		},
		Vault: Vault{
			VerifyCopies: defaultVerifyCopies,
			MinFreeMiB:   defaultMinFreeMiB,
		},
		Export: Export{
			Quality:        defaultExportQuality,
			Converter:      defaultExportConverter,
			TimeoutSeconds: defaultConverterTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
