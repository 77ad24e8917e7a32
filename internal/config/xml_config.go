// Package config provides XML-based configuration management for on-premise deployment.
package config

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// AppConfig represents the root XML configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"InvoiceWorkbench"`

	// Server configuration
	Server ServerConfig `xml:"Server"`

	// Storage configuration
	Storage StorageConfig `xml:"Storage"`

	// Extraction service configuration
	Extraction ExtractionConfig `xml:"Extraction"`

	// Processing configuration
	Processing ProcessingConfig `xml:"Processing"`

	// Security configuration
	Security SecurityConfig `xml:"Security"`

	// Advanced options
	Advanced AdvancedConfig `xml:"Advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `xml:"Port"`
	BindAddress  string `xml:"BindAddress"`
	EnableCORS   bool   `xml:"EnableCORS"`
	AllowOrigins string `xml:"AllowOrigins"`
	ReadTimeout  int    `xml:"ReadTimeoutSeconds"`
	WriteTimeout int    `xml:"WriteTimeoutSeconds"`
	IdleTimeout  int    `xml:"IdleTimeoutSeconds"`
	BodyLimit    string `xml:"BodyLimit"`
}

// StorageConfig contains file storage settings
type StorageConfig struct {
	Backend          string `xml:"Backend"` // "local" or "s3"
	DataDirectory    string `xml:"DataDirectory"`
	UploadsDirectory string `xml:"UploadsDirectory"`
	QueueDirectory   string `xml:"QueueDirectory"`
	MaxUploadSize    string `xml:"MaxUploadSize"`

	S3Endpoint  string `xml:"S3Endpoint"`
	S3AccessKey string `xml:"S3AccessKey"`
	S3SecretKey string `xml:"S3SecretKey"`
	S3Bucket    string `xml:"S3Bucket"`
	S3Region    string `xml:"S3Region"`
	S3UseSSL    bool   `xml:"S3UseSSL"`
}

// ExtractionConfig contains remote extraction service settings
type ExtractionConfig struct {
	ServiceURL     string `xml:"ServiceURL"`
	TimeoutMinutes int    `xml:"TimeoutMinutes"`
	MaxBatchFiles  int    `xml:"MaxBatchFiles"`
	Provider       string `xml:"Provider"`
	Model          string `xml:"Model"`
}

// ProcessingConfig contains workspace lifecycle settings
type ProcessingConfig struct {
	WorkspaceTimeoutMinutes int `xml:"WorkspaceTimeoutMinutes"`
	CleanupIntervalMinutes  int `xml:"CleanupIntervalMinutes"`
}

// SecurityConfig contains security settings
type SecurityConfig struct {
	AllowFileDeletion bool   `xml:"AllowFileDeletion"`
	RequireAuth       bool   `xml:"RequireAuthentication"`
	AuthToken         string `xml:"AuthToken"`
	AllowedFileTypes  string `xml:"AllowedFileTypes"`
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	LogLevel             string `xml:"LogLevel"`
	EnableRequestLogging bool   `xml:"EnableRequestLogging"`
	ValidationRulesFile  string `xml:"ValidationRulesFile"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         8090,
			BindAddress:  "0.0.0.0",
			EnableCORS:   true,
			AllowOrigins: "*",
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  120,
			BodyLimit:    "200M",
		},
		Storage: StorageConfig{
			Backend:          "local",
			DataDirectory:    "./data",
			UploadsDirectory: "./data/uploads",
			QueueDirectory:   "./data/queue",
			MaxUploadSize:    "200M",
			S3Region:         "us-east-1",
			S3UseSSL:         true,
		},
		Extraction: ExtractionConfig{
			ServiceURL:     "http://localhost:8000",
			TimeoutMinutes: 5,
			MaxBatchFiles:  20,
			Provider:       "openrouter",
			Model:          "qwen/qwen2.5-vl-72b-instruct",
		},
		Processing: ProcessingConfig{
			WorkspaceTimeoutMinutes: 30,
			CleanupIntervalMinutes:  5,
		},
		Security: SecurityConfig{
			AllowFileDeletion: true,
			RequireAuth:       false,
			AuthToken:         "",
			AllowedFileTypes:  ".pdf,.png,.jpg,.jpeg,.webp",
		},
		Advanced: AdvancedConfig{
			LogLevel:             "info",
			EnableRequestLogging: true,
			ValidationRulesFile:  "",
		},
	}
}

// LoadConfig loads configuration from XML file
func LoadConfig(configPath string) (*AppConfig, error) {
	// If file doesn't exist, create default
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		config := DefaultConfig()
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &AppConfig{}
	if err := xml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply environment variable overrides
	config.applyEnvironmentOverrides()

	// Resolve relative paths
	config.resolvePaths(filepath.Dir(configPath))

	return config, nil
}

// Save saves the configuration to XML file
func (c *AppConfig) Save(configPath string) error {
	output, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(xml.Header + "\n<!-- Invoice Workbench Configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	// PORT override
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	// DATA_DIR override
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		c.Storage.DataDirectory = dataDir
	}

	// EXTRACTION_SERVICE_URL override
	if url := os.Getenv("EXTRACTION_SERVICE_URL"); url != "" {
		c.Extraction.ServiceURL = url
	}

	// S3 credentials are usually injected rather than written to disk
	if key := os.Getenv("S3_ACCESS_KEY"); key != "" {
		c.Storage.S3AccessKey = key
	}
	if key := os.Getenv("S3_SECRET_KEY"); key != "" {
		c.Storage.S3SecretKey = key
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	if !filepath.IsAbs(c.Storage.DataDirectory) {
		c.Storage.DataDirectory = filepath.Join(configDir, c.Storage.DataDirectory)
	}
	if !filepath.IsAbs(c.Storage.UploadsDirectory) {
		c.Storage.UploadsDirectory = filepath.Join(configDir, c.Storage.UploadsDirectory)
	}
	if !filepath.IsAbs(c.Storage.QueueDirectory) {
		c.Storage.QueueDirectory = filepath.Join(configDir, c.Storage.QueueDirectory)
	}
	if c.Advanced.ValidationRulesFile != "" && !filepath.IsAbs(c.Advanced.ValidationRulesFile) {
		c.Advanced.ValidationRulesFile = filepath.Join(configDir, c.Advanced.ValidationRulesFile)
	}
}

// GetDataDir returns the absolute data directory path
func (c *AppConfig) GetDataDir() string {
	return c.Storage.DataDirectory
}

// GetUploadDir returns the absolute uploads directory path
func (c *AppConfig) GetUploadDir() string {
	return c.Storage.UploadsDirectory
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// AllowedExtensions returns the allowed upload extensions as a slice
func (c *AppConfig) AllowedExtensions() []string {
	var exts []string
	for _, e := range strings.Split(c.Security.AllowedFileTypes, ",") {
		e = strings.TrimSpace(e)
		if e != "" {
			exts = append(exts, e)
		}
	}
	return exts
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDirectory,
		c.Storage.UploadsDirectory,
		c.Storage.QueueDirectory,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
