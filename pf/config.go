package pf

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// Store kind names accepted by Config.Store
const (
	StoreSynthetic = "synthetic"
	StoreFile      = "file"
	StoreMmap      = "mmap"
)

// Config holds benchmark and PF layer configuration
type Config struct {
	// Buffer pool configuration
	Buffers uint32 `json:"buffers"` // Number of frames in the pool
	Policy  string `json:"policy"`  // Replacement policy (lru, mru)

	// Workload configuration
	Pages uint32 `json:"pages"` // Page-id space of the simulated store
	Ops   uint64 `json:"ops"`   // Fix/Unfix pairs to execute
	Mix   string `json:"mix"`   // Read:write weight ratio, e.g. "8:2"
	Seed  int64  `json:"seed"`  // RNG seed; 0 means time-derived

	// Backing store configuration
	Store       string `json:"store"`       // synthetic, file or mmap
	File        string `json:"file"`        // Page file path for file/mmap stores
	Compression string `json:"compression"` // Page compression (none, lz4, snappy)

	// Output configuration
	Header   bool   `json:"header"`    // Print CSV header before the result row
	LogLevel string `json:"log_level"` // Log level (debug, info, warn, error)
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Buffers:     40,
		Policy:      "lru",
		Pages:       200,
		Ops:         5000,
		Mix:         "8:2",
		Seed:        0,
		Store:       StoreSynthetic,
		File:        "pf_bench.pf",
		Compression: "none",
		Header:      false,
		LogLevel:    "info",
	}
}

// LoadConfigFromFile loads configuration from a JSON file
func LoadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// LoadConfigFromEnv loads configuration from environment variables,
// falling back to defaults for unset values
func LoadConfigFromEnv() *Config {
	config := DefaultConfig()

	if val := os.Getenv("PFBENCH_BUFFERS"); val != "" {
		if n, err := strconv.ParseUint(val, 10, 32); err == nil {
			config.Buffers = uint32(n)
		}
	}

	if val := os.Getenv("PFBENCH_POLICY"); val != "" {
		config.Policy = val
	}

	if val := os.Getenv("PFBENCH_PAGES"); val != "" {
		if n, err := strconv.ParseUint(val, 10, 32); err == nil {
			config.Pages = uint32(n)
		}
	}

	if val := os.Getenv("PFBENCH_OPS"); val != "" {
		if n, err := strconv.ParseUint(val, 10, 64); err == nil {
			config.Ops = n
		}
	}

	if val := os.Getenv("PFBENCH_MIX"); val != "" {
		config.Mix = val
	}

	if val := os.Getenv("PFBENCH_SEED"); val != "" {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			config.Seed = n
		}
	}

	if val := os.Getenv("PFBENCH_STORE"); val != "" {
		config.Store = val
	}

	if val := os.Getenv("PFBENCH_FILE"); val != "" {
		config.File = val
	}

	if val := os.Getenv("PFBENCH_COMPRESSION"); val != "" {
		config.Compression = val
	}

	if val := os.Getenv("PFBENCH_LOG_LEVEL"); val != "" {
		config.LogLevel = val
	}

	return config
}

// SaveToFile saves the configuration to a JSON file
func (c *Config) SaveToFile(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Buffers == 0 {
		return fmt.Errorf("buffers must be greater than 0")
	}

	if c.Pages == 0 {
		return fmt.Errorf("pages must be greater than 0")
	}

	if c.Ops == 0 {
		return fmt.Errorf("ops must be greater than 0")
	}

	if _, err := ParsePolicy(c.Policy); err != nil {
		return err
	}

	if _, err := ParseCompression(c.Compression); err != nil {
		return err
	}

	switch c.Store {
	case StoreSynthetic, StoreFile, StoreMmap:
	default:
		return fmt.Errorf("unknown store %q (must be synthetic, file or mmap)", c.Store)
	}

	if c.Store != StoreSynthetic && c.File == "" {
		return fmt.Errorf("file path cannot be empty for a %s store", c.Store)
	}

	if c.Store == StoreMmap && c.Compression != "none" && c.Compression != "" {
		return fmt.Errorf("page compression requires the file store")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// Clone creates a copy of the configuration
func (c *Config) Clone() *Config {
	dup := *c
	return &dup
}

// OpenStore constructs the backing store the config describes.
// File-backed stores are recreated from scratch: every benchmark run
// starts from an empty page space, so preload allocates ids from zero
// and reruns over the same path do not grow the file.
func (c *Config) OpenStore() (PageStore, error) {
	switch c.Store {
	case StoreFile:
		ctype, err := ParseCompression(c.Compression)
		if err != nil {
			return nil, err
		}
		if err := recreatePageFile(c.File); err != nil {
			return nil, err
		}
		return NewDiskStoreWithCompression(c.File, ctype)
	case StoreMmap:
		if err := recreatePageFile(c.File); err != nil {
			return nil, err
		}
		return NewMmapStore(c.File)
	default:
		return NewSyntheticStore(), nil
	}
}

func recreatePageFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stale page file %s: %w", path, err)
	}
	return nil
}
