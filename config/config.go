// Package config loads the softnic configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ardnew/softnic/hal"
	"github.com/ardnew/softnic/link"
	"github.com/ardnew/softnic/pkg"
	"github.com/ardnew/softnic/ring"
)

// Variant names a controller implementation.
type Variant string

// Controller variants.
const (
	VariantFIFO  Variant = "fifo"
	VariantUSPi  Variant = "uspi"
	VariantGENET Variant = "genet"
)

// Waiter names a ring wait strategy.
type Waiter string

// Wait strategies.
const (
	WaiterYield Waiter = "yield"
	WaiterPark  Waiter = "park"
)

// Config holds the softnic configuration.
type Config struct {
	Variant    Variant `yaml:"variant"`
	BusDir     string  `yaml:"bus_dir"`
	DeviceID   string  `yaml:"device_id"`
	MAC        string  `yaml:"mac"`
	RxDataport string  `yaml:"rx_dataport"`
	TxDataport string  `yaml:"tx_dataport"`
	Socket     string  `yaml:"socket"`

	Link    LinkConfig    `yaml:"link"`
	Ring    RingConfig    `yaml:"ring"`
	Ingress IngressConfig `yaml:"ingress"`
	Log     LogConfig     `yaml:"log"`
}

// LinkConfig configures the link monitor.
type LinkConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	WarnAfter    int           `yaml:"warn_after"`
}

// RingConfig configures the receive ring.
type RingConfig struct {
	Waiter       Waiter        `yaml:"waiter"`
	ParkInterval time.Duration `yaml:"park_interval"`
}

// IngressConfig configures the ingress loop.
type IngressConfig struct {
	// Idle is the sleep between polls of an idle controller. Zero yields.
	Idle time.Duration `yaml:"idle"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Variant:    VariantFIFO,
		BusDir:     "/tmp/softnic-bus",
		MAC:        "02:00:00:00:00:01",
		RxDataport: "/dev/shm/softnic-rx",
		TxDataport: "/dev/shm/softnic-tx",
		Socket:     "/tmp/softnic.sock",
		Link: LinkConfig{
			PollInterval: link.DefaultInterval,
			WarnAfter:    link.DefaultWarnAfter,
		},
		Ring: RingConfig{
			Waiter:       WaiterYield,
			ParkInterval: ring.DefaultParkInterval,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// DefaultPath returns the default config file path:
// $XDG_CONFIG_HOME/softnic/config.yaml, or ./softnic.yaml when no user
// configuration directory is known.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "softnic.yaml"
	}
	return filepath.Join(dir, "softnic", "config.yaml")
}

// Load reads the configuration from the given YAML file path.
// If the file does not exist, it returns Default with no error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the driver cannot use.
func (c *Config) Validate() error {
	switch c.Variant {
	case VariantFIFO, VariantUSPi, VariantGENET:
	default:
		return fmt.Errorf("unknown variant %q: %w", c.Variant, pkg.ErrInvalidParameter)
	}

	if c.Variant == VariantFIFO {
		if c.BusDir == "" {
			return fmt.Errorf("bus_dir is required for the fifo variant: %w", pkg.ErrInvalidParameter)
		}
		if _, err := c.MACAddress(); err != nil {
			return err
		}
	}

	if c.Link.PollInterval <= 0 {
		return fmt.Errorf("link.poll_interval %v: %w", c.Link.PollInterval, pkg.ErrInvalidParameter)
	}
	if c.Link.WarnAfter <= 0 {
		return fmt.Errorf("link.warn_after %d: %w", c.Link.WarnAfter, pkg.ErrInvalidParameter)
	}

	switch c.Ring.Waiter {
	case WaiterYield:
	case WaiterPark:
		if c.Ring.ParkInterval <= 0 {
			return fmt.Errorf("ring.park_interval %v: %w", c.Ring.ParkInterval, pkg.ErrInvalidParameter)
		}
	default:
		return fmt.Errorf("unknown ring.waiter %q: %w", c.Ring.Waiter, pkg.ErrInvalidParameter)
	}

	if c.Ingress.Idle < 0 {
		return fmt.Errorf("ingress.idle %v: %w", c.Ingress.Idle, pkg.ErrInvalidParameter)
	}

	if _, err := pkg.ParseLogLevel(c.Log.Level); err != nil {
		return err
	}
	if _, ok := pkg.ParseLogFormat(c.Log.Format); !ok {
		return fmt.Errorf("unknown log.format %q: %w", c.Log.Format, pkg.ErrInvalidParameter)
	}
	return nil
}

// MACAddress parses the configured hardware address.
func (c *Config) MACAddress() (hal.MACAddress, error) {
	mac, err := hal.ParseMACAddress(strings.TrimSpace(c.MAC))
	if err != nil {
		return mac, fmt.Errorf("mac %q: %w", c.MAC, err)
	}
	return mac, nil
}

// RingWaiter builds the configured wait strategy.
func (c *Config) RingWaiter() ring.Waiter {
	if c.Ring.Waiter == WaiterPark {
		return ring.NewParkWaiter(c.Ring.ParkInterval)
	}
	return ring.YieldWaiter{}
}
