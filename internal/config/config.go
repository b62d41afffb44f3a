package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/funtimes-spiled/internal/channels"
	"github.com/coreman2200/funtimes-spiled/internal/led"
)

const (
	DefaultListen   = ":19444"
	DefaultBus      = "spidev"
	DefaultRateHz   = 1000000
	DefaultInterval = 20 * time.Millisecond
)

type Device struct {
	Name      string        `yaml:"name" validate:"required"`
	Type      string        `yaml:"type" validate:"required,oneof=lpd8806 ws2801 p9813"`
	Bus       string        `yaml:"bus" validate:"oneof=spidev periph sim"`
	Output    string        `yaml:"output" validate:"required_unless=Bus sim"`
	RateHz    int           `yaml:"rate" validate:"gt=0"`
	Interval  time.Duration `yaml:"interval" validate:"gt=0"`
	Debug     bool          `yaml:"debug,omitempty"`
	AllowSync *bool         `yaml:"allowsync,omitempty"`
	Lights    []string      `yaml:"lights" validate:"min=1,dive,required"`
}

type Config struct {
	Listen  string        `yaml:"listen"`
	Retry   time.Duration `yaml:"retry" validate:"gte=0"`
	Devices []Device      `yaml:"devices" validate:"min=1,unique=Name,dive"`
}

func Default() *Config {
	return &Config{
		Listen: DefaultListen,
		Retry:  led.DefaultRetryDelay,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func Load(fs afero.Fs, path string) (*Config, error) {
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func Save(fs afero.Fs, path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return afero.WriteFile(fs, path, b, 0644)
}

func (c *Config) applyDefaults() {
	for i := range c.Devices {
		d := &c.Devices[i]
		d.Type = strings.ToLower(strings.TrimSpace(d.Type))
		if d.Bus == "" {
			d.Bus = DefaultBus
		}
		if d.RateHz == 0 {
			d.RateHz = DefaultRateHz
		}
		if d.Interval == 0 {
			d.Interval = DefaultInterval
		}
		if d.AllowSync == nil {
			yes := true
			d.AllowSync = &yes
		}
	}
}

// Validate checks the config, describing every offending field.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag())
		if fe.Param() != "" {
			msg += " (" + fe.Param() + ")"
		}
		msgs = append(msgs, msg)
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// LED converts a validated device entry into the driver configuration.
func (d Device) LED() (led.Config, error) {
	typ, err := led.ParseType(d.Type)
	if err != nil {
		return led.Config{}, err
	}
	allow := d.AllowSync == nil || *d.AllowSync
	return led.Config{
		Name:      d.Name,
		Output:    d.Output,
		Type:      typ,
		Rate:      physic.Frequency(d.RateHz) * physic.Hertz,
		Interval:  d.Interval,
		Channels:  channels.Expand(d.Lights),
		Debug:     d.Debug,
		AllowSync: allow,
	}, nil
}
