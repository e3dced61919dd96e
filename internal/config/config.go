// Package config handles tool configuration loading and management.
package config

// Config holds all sqtool settings.
type Config struct {
	Pack    PackConfig    `yaml:"pack"`
	Extract ExtractConfig `yaml:"extract"`
	Logging LoggingConfig `yaml:"logging"`
}

// PackConfig names the files inside an unpacked mod pack directory.
type PackConfig struct {
	ModList  string `yaml:"mod_list"`  // Mod list file (JSON lines or a single JSON document)
	DataFile string `yaml:"data_file"` // Packed entry data
}

// ExtractConfig holds batch extraction settings.
type ExtractConfig struct {
	OutputDir string `yaml:"output_dir"`
	Workers   int    `yaml:"workers"`
	Overwrite bool   `yaml:"overwrite"`
	Checksums bool   `yaml:"checksums"` // Record xxhash64 of every extracted file
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Pack: PackConfig{
			ModList:  "TTMPL.mpl",
			DataFile: "TTMPD.mpd",
		},
		Extract: ExtractConfig{
			OutputDir: "extracted",
			Workers:   4,
			Overwrite: false,
			Checksums: true,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
