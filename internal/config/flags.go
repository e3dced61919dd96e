package config

import "flag"

// Flags holds the command-line overrides shared by all subcommands.
type Flags struct {
	Config    string
	Debug     bool
	OutputDir string
	Workers   int
	Overwrite bool
}

// RegisterFlags adds the shared flags to fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.OutputDir, "out", "", "Output directory")
	fs.IntVar(&f.Workers, "workers", 0, "Parallel extraction workers")
	fs.BoolVar(&f.Overwrite, "overwrite", false, "Overwrite existing files")
	return f
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f == nil {
		return
	}
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.OutputDir != "" {
		cfg.Extract.OutputDir = f.OutputDir
	}
	if f.Workers > 0 {
		cfg.Extract.Workers = f.Workers
	}
	if f.Overwrite {
		cfg.Extract.Overwrite = true
	}
}
