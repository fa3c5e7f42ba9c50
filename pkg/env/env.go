// Package env provides the configuration shared by the mos tools.
package env

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/denisbrodbeck/machineid"
	"gopkg.in/yaml.v3"

	"github.com/robotalks/mos.go/pkg/comm/mqtt"
	"github.com/robotalks/mos.go/pkg/comm/serial"
	fx "github.com/robotalks/mos.go/pkg/framework"
)

// FallbackDeviceID is used when the machine ID is not available.
const FallbackDeviceID = "local"

// Config provides common options of the device and host tools.
type Config struct {
	// DeviceID identifies the device on MQTT.
	DeviceID string `yaml:"device_id"`
	// MQTTURL is the broker URL, e.g. mqtt://host:port/topic-prefix/.
	// Empty disables MQTT.
	MQTTURL string `yaml:"mqtt_url"`
	// Listen is the websocket link address served by the device.
	Listen string `yaml:"listen"`
	// LinkURL is the websocket link URL dialed by host tools.
	LinkURL string `yaml:"link_url"`
	// Serial configures the UART link. An empty device disables it.
	Serial serial.Config `yaml:"serial"`
	// Resolution is the scheduler tick period.
	Resolution time.Duration `yaml:"resolution"`
	// StatusPeriod is the status publish period in ticks.
	StatusPeriod uint16 `yaml:"status_period"`
}

var (
	defaultConfig = Config{
		Listen:       ":8088",
		LinkURL:      "ws://localhost:8088/link",
		Serial:       serial.DefaultConfig(""),
		Resolution:   10 * time.Millisecond,
		StatusPeriod: 100,
	}
	configFile string
)

func init() {
	if val := os.Getenv("MOS_DEVICE_ID"); val != "" {
		defaultConfig.DeviceID = val
	}
	if val := os.Getenv("MOS_MQTT_URL"); val != "" {
		defaultConfig.MQTTURL = val
	}
	if val := os.Getenv("MOS_SERIAL"); val != "" {
		defaultConfig.Serial.Device = val
	}
	if val := os.Getenv("MOS_CONFIG"); val != "" {
		configFile = val
	}
}

// MachineID retrieves the unique ID identifying the machine.
func MachineID() string {
	id, err := machineid.ID()
	if err != nil || id == "" {
		return FallbackDeviceID
	}
	return id
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&configFile, "config", configFile, "YAML config file.")
	flag.StringVar(&defaultConfig.DeviceID, "device-id", defaultConfig.DeviceID, "Device ID, defaults to machine ID.")
	flag.StringVar(&defaultConfig.MQTTURL, "mqtt", defaultConfig.MQTTURL, "MQTT broker URL.")
	flag.StringVar(&defaultConfig.Listen, "listen", defaultConfig.Listen, "Websocket link listen address.")
	flag.StringVar(&defaultConfig.LinkURL, "link", defaultConfig.LinkURL, "Websocket link URL.")
	flag.StringVar(&defaultConfig.Serial.Device, "serial", defaultConfig.Serial.Device, "Serial device.")
	flag.IntVar(&defaultConfig.Serial.Baud, "baud", defaultConfig.Serial.Baud, "Serial baud rate.")
	flag.DurationVar(&defaultConfig.Resolution, "resolution", defaultConfig.Resolution, "Scheduler tick period.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config from defaults, environment and flags, then
// applies the config file if one is specified. Keys in the file take
// precedence.
func NewConfig() (*Config, error) {
	conf := defaultConfig
	if configFile != "" {
		if err := conf.LoadFile(configFile); err != nil {
			return nil, err
		}
	}
	if conf.DeviceID == "" {
		conf.DeviceID = MachineID()
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

// MustNewConfig creates a Config and fails on error.
func MustNewConfig() *Config {
	conf, err := NewConfig()
	if err != nil {
		log.Fatalln(err)
	}
	return conf
}

// LoadFile overrides the config with keys in a YAML file.
func (c *Config) LoadFile(fn string) error {
	data, err := os.ReadFile(fn)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	return c.Load(data)
}

// Load overrides the config with keys in YAML data.
func (c *Config) Load(data []byte) error {
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// Validate checks the config.
func (c *Config) Validate() error {
	var errs fx.AggregatedError
	if c.DeviceID == "" {
		errs.Add(errors.New("device id must be specified"))
	} else if strings.ContainsAny(c.DeviceID, "/+#") {
		errs.Add(fmt.Errorf("invalid device id %q", c.DeviceID))
	}
	if c.MQTTURL != "" {
		u, err := url.Parse(c.MQTTURL)
		switch {
		case err != nil:
			errs.Add(fmt.Errorf("invalid MQTT URL: %w", err))
		case u.Host == "":
			errs.Add(fmt.Errorf("invalid MQTT URL %q: missing host", c.MQTTURL))
		}
	}
	if c.Resolution <= 0 {
		errs.Add(fmt.Errorf("invalid resolution %v", c.Resolution))
	}
	if c.StatusPeriod == 0 {
		errs.Add(errors.New("status period must be positive"))
	}
	if c.Serial.Device != "" && c.Serial.Baud <= 0 {
		errs.Add(fmt.Errorf("invalid baud rate %d", c.Serial.Baud))
	}
	return errs.Aggregate()
}

// ConnectMQTT connects to the broker. The client ID defaults to the
// device ID prefixed by name.
func (c *Config) ConnectMQTT(name string) (*mqtt.Queue, error) {
	if c.MQTTURL == "" {
		return nil, errors.New("MQTT URL not specified")
	}
	opts, prefix, err := mqtt.ClientOptionsFromURL(c.MQTTURL)
	if err != nil {
		return nil, err
	}
	if opts.ClientID == "" {
		opts.SetClientID(name + ":" + c.DeviceID)
	}
	q := mqtt.NewQueue(opts, prefix)
	if err := q.Connect(); err != nil {
		return nil, fmt.Errorf("connect %s: %w", c.MQTTURL, err)
	}
	return q, nil
}

// MustConnectMQTT connects to the broker and fails on error.
func (c *Config) MustConnectMQTT(name string) *mqtt.Queue {
	q, err := c.ConnectMQTT(name)
	if err != nil {
		log.Fatalln(err)
	}
	return q
}

// OpenSerial opens the configured serial port.
func (c *Config) OpenSerial() (*serial.Port, error) {
	return serial.Open(c.Serial)
}
