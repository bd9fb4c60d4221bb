// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Security  SecurityConfig  `mapstructure:"security"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Printer   PrinterConfig   `mapstructure:"printer"`
	Transport TransportConfig `mapstructure:"transport"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`
	App       AppConfig       `mapstructure:"app"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	TLS          TLSConfig     `mapstructure:"tls"`
}

// TLSConfig represents TLS configuration
type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
}

// DatabaseConfig represents the operation journal database.
// When Enabled is false the journal is kept in memory.
type DatabaseConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port"`
	User          string        `mapstructure:"user"`
	Password      string        `mapstructure:"password"`
	DBName        string        `mapstructure:"dbname"`
	SSLMode       string        `mapstructure:"sslmode"`
	MaxOpenConns  int           `mapstructure:"max_open_conns"`
	MaxIdleConns  int           `mapstructure:"max_idle_conns"`
	MaxLifetime   time.Duration `mapstructure:"max_lifetime"`
	AutoMigrate   bool          `mapstructure:"auto_migrate"`
	Retention     time.Duration `mapstructure:"retention"`
	MemoryEntries int           `mapstructure:"memory_entries"`
}

// SecurityConfig represents security configuration
type SecurityConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// PrinterConfig controls the session controller and the task pool
type PrinterConfig struct {
	OperationTimeout     time.Duration `mapstructure:"operation_timeout"`
	StatusTimeout        time.Duration `mapstructure:"status_timeout"`
	WorkerPoolSize       int           `mapstructure:"worker_pool_size"`
	MaxAddDepth          int           `mapstructure:"max_add_depth"`
	PersistentAttempts   int           `mapstructure:"persistent_attempts"`
	MonitorPollInterval  time.Duration `mapstructure:"monitor_poll_interval"`
	InputPollInterval    time.Duration `mapstructure:"input_poll_interval"`
	EventBufferSize      int           `mapstructure:"event_buffer_size"`
	DefaultPaperWidthMM  int           `mapstructure:"default_paper_width_mm"`
	DotsPerMM            float64       `mapstructure:"dots_per_mm"`
	ShutdownCloseTimeout time.Duration `mapstructure:"shutdown_close_timeout"`
}

// TransportConfig holds per-interface transport defaults
type TransportConfig struct {
	TCP    TCPTransportConfig    `mapstructure:"tcp"`
	USB    USBTransportConfig    `mapstructure:"usb"`
	Serial SerialTransportConfig `mapstructure:"serial"`
}

// TCPTransportConfig represents LAN printer transport configuration
type TCPTransportConfig struct {
	Port           int           `mapstructure:"port"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	KeepAlive      bool          `mapstructure:"keep_alive"`
}

// USBTransportConfig represents USB transport configuration
type USBTransportConfig struct {
	Timeout          time.Duration `mapstructure:"timeout"`
	BulkTransferSize int           `mapstructure:"bulk_transfer_size"`
}

// SerialTransportConfig represents the Bluetooth SPP serial port configuration
type SerialTransportConfig struct {
	BaudRate int           `mapstructure:"baud_rate"`
	DataBits int           `mapstructure:"data_bits"`
	StopBits int           `mapstructure:"stop_bits"`
	Parity   string        `mapstructure:"parity"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// DiscoveryConfig represents printer discovery configuration
type DiscoveryConfig struct {
	DefaultTimeout  time.Duration   `mapstructure:"default_timeout"`
	MaxTimeout      time.Duration   `mapstructure:"max_timeout"`
	LAN             LANDiscovery    `mapstructure:"lan"`
	USB             USBDiscovery    `mapstructure:"usb"`
	Bluetooth       BluetoothConfig `mapstructure:"bluetooth"`
	ResultBufferCap int             `mapstructure:"result_buffer_cap"`
}

// LANDiscovery represents mDNS and SNMP settings for LAN discovery
type LANDiscovery struct {
	ServiceTypes  []string      `mapstructure:"service_types"`
	Domain        string        `mapstructure:"domain"`
	SNMPEnabled   bool          `mapstructure:"snmp_enabled"`
	SNMPCommunity string        `mapstructure:"snmp_community"`
	SNMPPort      int           `mapstructure:"snmp_port"`
	SNMPTimeout   time.Duration `mapstructure:"snmp_timeout"`
}

// USBDiscovery represents USB discovery settings
type USBDiscovery struct {
	VendorIDs []string `mapstructure:"vendor_ids"`
}

// BluetoothConfig represents Bluetooth discovery settings
type BluetoothConfig struct {
	PortPatterns    []string `mapstructure:"port_patterns"`
	PermissionPaths []string `mapstructure:"permission_paths"`
}

// AppConfig represents application metadata
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/printer-bridge")

	return load(v)
}

// LoadFile loads configuration from an explicit file path
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	// Environment variable support
	v.SetEnvPrefix("PRINTER_BRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// A missing file is fine, defaults and environment still apply
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", "8085")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "90s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.tls.enabled", false)

	// Database defaults
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "printer_bridge")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.max_lifetime", "5m")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.retention", "720h")
	v.SetDefault("database.memory_entries", 500)

	v.SetDefault("security.allowed_origins", []string{})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 28)
	v.SetDefault("logging.compress", true)

	// Printer defaults
	v.SetDefault("printer.operation_timeout", "60s")
	v.SetDefault("printer.status_timeout", "5s")
	v.SetDefault("printer.worker_pool_size", 16)
	v.SetDefault("printer.max_add_depth", 16)
	v.SetDefault("printer.persistent_attempts", 2)
	v.SetDefault("printer.monitor_poll_interval", "2s")
	v.SetDefault("printer.input_poll_interval", "200ms")
	v.SetDefault("printer.event_buffer_size", 1000)
	v.SetDefault("printer.default_paper_width_mm", 72)
	v.SetDefault("printer.dots_per_mm", 8.0)
	v.SetDefault("printer.shutdown_close_timeout", "10s")

	// Transport defaults
	v.SetDefault("transport.tcp.port", 9100)
	v.SetDefault("transport.tcp.connect_timeout", "10s")
	v.SetDefault("transport.tcp.read_timeout", "5s")
	v.SetDefault("transport.tcp.write_timeout", "30s")
	v.SetDefault("transport.tcp.keep_alive", true)

	v.SetDefault("transport.usb.timeout", "5s")
	v.SetDefault("transport.usb.bulk_transfer_size", 64)

	v.SetDefault("transport.serial.baud_rate", 115200)
	v.SetDefault("transport.serial.data_bits", 8)
	v.SetDefault("transport.serial.stop_bits", 1)
	v.SetDefault("transport.serial.parity", "none")
	v.SetDefault("transport.serial.timeout", "2s")

	// Discovery defaults
	v.SetDefault("discovery.default_timeout", "10s")
	v.SetDefault("discovery.max_timeout", "120s")
	v.SetDefault("discovery.lan.service_types", []string{"_pdl-datastream._tcp", "_printer._tcp", "_ipp._tcp"})
	v.SetDefault("discovery.lan.domain", "local.")
	v.SetDefault("discovery.lan.snmp_enabled", true)
	v.SetDefault("discovery.lan.snmp_community", "public")
	v.SetDefault("discovery.lan.snmp_port", 161)
	v.SetDefault("discovery.lan.snmp_timeout", "2s")
	v.SetDefault("discovery.usb.vendor_ids", []string{"0x0519"})
	v.SetDefault("discovery.bluetooth.port_patterns", []string{"rfcomm", "Star", "BT"})
	v.SetDefault("discovery.bluetooth.permission_paths", []string{"/dev/rfcomm0"})
	v.SetDefault("discovery.result_buffer_cap", 64)

	// App defaults
	v.SetDefault("app.name", "printer-bridge")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Server.Host == "" {
		return fmt.Errorf("server.host is required")
	}
	if config.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if config.Database.Enabled && config.Database.Host == "" {
		return fmt.Errorf("database.host is required when database.enabled is set")
	}

	validEnvs := []string{"development", "staging", "production", "test"}
	if !contains(validEnvs, config.App.Environment) {
		return fmt.Errorf("app.environment must be one of: %v", validEnvs)
	}

	validLevels := []string{"debug", "info", "warn", "error", "fatal"}
	if !contains(validLevels, config.Logging.Level) {
		return fmt.Errorf("logging.level must be one of: %v", validLevels)
	}

	if config.Printer.WorkerPoolSize < 1 {
		return fmt.Errorf("printer.worker_pool_size must be positive")
	}
	if config.Printer.MaxAddDepth < 1 {
		return fmt.Errorf("printer.max_add_depth must be positive")
	}
	if config.Printer.PersistentAttempts < 1 {
		return fmt.Errorf("printer.persistent_attempts must be at least 1")
	}
	if config.Printer.DotsPerMM <= 0 {
		return fmt.Errorf("printer.dots_per_mm must be positive")
	}
	if config.Discovery.MaxTimeout < config.Discovery.DefaultTimeout {
		return fmt.Errorf("discovery.max_timeout must not be lower than discovery.default_timeout")
	}

	return nil
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host, c.Database.Port, c.Database.User,
		c.Database.Password, c.Database.DBName, c.Database.SSLMode)
}

// GetServerAddr returns the server address
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// IsProduction checks if the environment is production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment checks if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsDebugEnabled checks if debug mode is enabled
func (c *Config) IsDebugEnabled() bool {
	return c.App.Debug || c.IsDevelopment()
}
