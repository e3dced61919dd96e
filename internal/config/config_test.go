package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Pack.ModList != "TTMPL.mpl" {
		t.Errorf("expected mod list TTMPL.mpl, got %s", cfg.Pack.ModList)
	}
	if cfg.Pack.DataFile != "TTMPD.mpd" {
		t.Errorf("expected data file TTMPD.mpd, got %s", cfg.Pack.DataFile)
	}
	if cfg.Extract.OutputDir != "extracted" {
		t.Errorf("expected output dir 'extracted', got %s", cfg.Extract.OutputDir)
	}
	if cfg.Extract.Workers != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.Extract.Workers)
	}
	if cfg.Extract.Overwrite {
		t.Error("expected overwrite to be false by default")
	}
	if !cfg.Extract.Checksums {
		t.Error("expected checksums to be enabled by default")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "sqtool.yaml")

	yamlContent := `
pack:
  mod_list: "mods.mpl"
  data_file: "mods.mpd"

extract:
  output_dir: "/tmp/out"
  workers: 8
  overwrite: true
  checksums: false

logging:
  level: "debug"
  log_file: "sqtool.log"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Pack.ModList != "mods.mpl" || cfg.Pack.DataFile != "mods.mpd" {
		t.Errorf("unexpected pack config %+v", cfg.Pack)
	}
	if cfg.Extract.OutputDir != "/tmp/out" {
		t.Errorf("expected output dir /tmp/out, got %s", cfg.Extract.OutputDir)
	}
	if cfg.Extract.Workers != 8 {
		t.Errorf("expected 8 workers, got %d", cfg.Extract.Workers)
	}
	if !cfg.Extract.Overwrite {
		t.Error("expected overwrite to be true")
	}
	if cfg.Extract.Checksums {
		t.Error("expected checksums to be false")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "sqtool.log" {
		t.Errorf("expected log file 'sqtool.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFilePartial(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "sqtool.yaml")
	if err := os.WriteFile(configPath, []byte("extract:\n  workers: 2\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Extract.Workers != 2 {
		t.Errorf("expected 2 workers, got %d", cfg.Extract.Workers)
	}
	if cfg.Pack.DataFile != "TTMPD.mpd" {
		t.Errorf("expected default data file to survive, got %s", cfg.Pack.DataFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.yaml")

	invalidYAML := `
extract:
  workers: not a number
  invalid syntax here
`
	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/sqtool.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	if err := os.WriteFile("sqtool.yaml", []byte("extract:\n  workers: 3\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}
	if path := findConfigFile(); path == "" {
		t.Error("expected to find sqtool.yaml in current directory")
	}
}

func TestFlags(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		verify func(t *testing.T, cfg *Config)
	}{
		{
			name: "debug flag",
			args: []string{"-debug"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
		},
		{
			name: "output and workers",
			args: []string{"-out", "dump", "-workers", "16"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Extract.OutputDir != "dump" {
					t.Errorf("expected output dir dump, got %s", cfg.Extract.OutputDir)
				}
				if cfg.Extract.Workers != 16 {
					t.Errorf("expected 16 workers, got %d", cfg.Extract.Workers)
				}
			},
		},
		{
			name: "overwrite flag",
			args: []string{"-overwrite"},
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Extract.Overwrite {
					t.Error("expected overwrite to be enabled")
				}
			},
		},
		{
			name: "no flags keeps defaults",
			args: nil,
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Extract.Workers != 4 || cfg.Logging.Level != "info" {
					t.Errorf("defaults changed: %+v", cfg)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := flag.NewFlagSet("test", flag.ContinueOnError)
			flags := RegisterFlags(fs)
			if err := fs.Parse(tt.args); err != nil {
				t.Fatalf("parsing flags: %v", err)
			}

			cfg := Default()
			flags.apply(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "sqtool.yaml")
	yamlContent := `
extract:
  output_dir: "from-file"
  workers: 6
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(&Flags{Config: configPath, Workers: 12})
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Workers from flag, output dir from file
	if cfg.Extract.Workers != 12 {
		t.Errorf("expected 12 workers from flag, got %d", cfg.Extract.Workers)
	}
	if cfg.Extract.OutputDir != "from-file" {
		t.Errorf("expected output dir from file, got %s", cfg.Extract.OutputDir)
	}
}

func TestLoadInvalidWorkers(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "sqtool.yaml")
	if err := os.WriteFile(configPath, []byte("extract:\n  workers: 0\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if _, err := Load(&Flags{Config: configPath}); err == nil {
		t.Error("expected validation error for zero workers")
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sqtool.yaml")

	cfg := Default()
	cfg.Extract.Workers = 9
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reloading saved config: %v", err)
	}
	if loaded.Extract.Workers != 9 {
		t.Errorf("expected 9 workers after reload, got %d", loaded.Extract.Workers)
	}
}
