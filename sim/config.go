// SPDX-License-Identifier: GPL-3.0-or-later

package sim

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rbmk-project/linksim/datalink"
	"github.com/rbmk-project/linksim/errclass"
	"github.com/rbmk-project/linksim/medium"
	"github.com/rbmk-project/linksim/network"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// ErrConfigFormat is returned when loading a config file whose
// extension is neither .ini nor .yaml/.yml.
var ErrConfigFormat = errclass.Sentinel(errclass.EINVAL, "sim: unsupported config file format")

// DefaultDNSAddress is the address the answering side
// associates with the queried name.
const DefaultDNSAddress = "192.0.2.1"

// Config contains the simulation parameters.
type Config struct {
	// Medium is the medium name (see [MediumNames]).
	Medium string

	// Scheme is the framing scheme name (see [SchemeNames]).
	Scheme string

	// Traffic is the traffic profile (see [network.ProfileText]
	// and [network.ProfileDNS]).
	Traffic string

	// DNSName is the name queried by the DNS profile.
	DNSName string

	// DNSAddresses are the addresses the answering side
	// returns for DNSName.
	DNSAddresses []string

	// BurstProbability is the probability of starting a burst.
	BurstProbability float64

	// ErrorProbability is the probability of flipping a bit in a burst.
	ErrorProbability float64

	// MaxBurstLength is the number of transmissions in a burst.
	MaxBurstLength int

	// Seed seeds the noise. Zero selects the default stream.
	Seed uint64

	// MaxFrameBuffer is the data-link incoming buffer limit.
	MaxFrameBuffer int

	// Capture is the optional path of the CSV transmission trace.
	Capture string
}

// DefaultConfig returns the default [*Config].
func DefaultConfig() *Config {
	return &Config{
		Medium:           "Perfect",
		Scheme:           "Simple",
		Traffic:          network.ProfileText,
		DNSName:          network.DefaultDNSName,
		DNSAddresses:     []string{DefaultDNSAddress},
		BurstProbability: medium.DefaultBurstProbability,
		ErrorProbability: medium.DefaultErrorProbability,
		MaxBurstLength:   medium.DefaultMaxBurstLength,
		MaxFrameBuffer:   datalink.DefaultMaxFrameBuffer,
	}
}

// MediumSection contains the medium settings.
type MediumSection struct {
	Name             *string  `ini:"name" yaml:"name"`
	BurstProbability *float64 `ini:"burst_probability" yaml:"burst_probability"`
	ErrorProbability *float64 `ini:"error_probability" yaml:"error_probability"`
	MaxBurstLength   *int     `ini:"max_burst_length" yaml:"max_burst_length"`
	Seed             *uint64  `ini:"seed" yaml:"seed"`
	Capture          *string  `ini:"capture" yaml:"capture"`
}

// DatalinkSection contains the data-link settings.
type DatalinkSection struct {
	Scheme         *string `ini:"scheme" yaml:"scheme"`
	MaxFrameBuffer *int    `ini:"max_frame_buffer" yaml:"max_frame_buffer"`
}

// NetworkSection contains the network settings.
type NetworkSection struct {
	Traffic      *string  `ini:"traffic" yaml:"traffic"`
	DNSName      *string  `ini:"dns_name" yaml:"dns_name"`
	DNSAddresses []string `ini:"dns_addresses" yaml:"dns_addresses"`
}

// Overrides contains the settings explicitly provided by a config
// file or the command line. Nil fields keep the current value.
type Overrides struct {
	Medium   MediumSection   `yaml:"medium"`
	Datalink DatalinkSection `yaml:"datalink"`
	Network  NetworkSection  `yaml:"network"`
}

// Merge overwrites the fields of config set in ov.
func (ov *Overrides) Merge(config *Config) {
	if ov.Medium.Name != nil {
		config.Medium = *ov.Medium.Name
	}
	if ov.Medium.BurstProbability != nil {
		config.BurstProbability = *ov.Medium.BurstProbability
	}
	if ov.Medium.ErrorProbability != nil {
		config.ErrorProbability = *ov.Medium.ErrorProbability
	}
	if ov.Medium.MaxBurstLength != nil {
		config.MaxBurstLength = *ov.Medium.MaxBurstLength
	}
	if ov.Medium.Seed != nil {
		config.Seed = *ov.Medium.Seed
	}
	if ov.Medium.Capture != nil {
		config.Capture = *ov.Medium.Capture
	}
	if ov.Datalink.Scheme != nil {
		config.Scheme = *ov.Datalink.Scheme
	}
	if ov.Datalink.MaxFrameBuffer != nil {
		config.MaxFrameBuffer = *ov.Datalink.MaxFrameBuffer
	}
	if ov.Network.Traffic != nil {
		config.Traffic = *ov.Network.Traffic
	}
	if ov.Network.DNSName != nil {
		config.DNSName = *ov.Network.DNSName
	}
	if ov.Network.DNSAddresses != nil {
		config.DNSAddresses = ov.Network.DNSAddresses
	}
}

// LoadOverrides reads the [*Overrides] from an .ini file, using
// the [medium], [datalink] and [network] sections, or from a
// .yaml/.yml file, using top-level keys with the same names.
func LoadOverrides(path string) (*Overrides, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".ini":
		return loadINI(path)
	case ".yaml", ".yml":
		return loadYAML(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrConfigFormat, ext)
	}
}

func loadINI(path string) (*Overrides, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	ov := &Overrides{}
	if err := cfg.Section("medium").MapTo(&ov.Medium); err != nil {
		return nil, err
	}
	if err := cfg.Section("datalink").MapTo(&ov.Datalink); err != nil {
		return nil, err
	}
	if err := cfg.Section("network").MapTo(&ov.Network); err != nil {
		return nil, err
	}
	return ov, nil
}

func loadYAML(path string) (*Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ov := &Overrides{}
	if err := yaml.Unmarshal(data, ov); err != nil {
		return nil, err
	}
	return ov, nil
}

// mediumConfig returns the [*medium.Config] for config.
func (config *Config) mediumConfig() *medium.Config {
	return &medium.Config{
		BurstProbability: config.BurstProbability,
		ErrorProbability: config.ErrorProbability,
		MaxBurstLength:   config.MaxBurstLength,
		Seed:             config.Seed,
	}
}
