// Copyright (C) 2023, E36 Knots. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config loads the library configuration: the list of known
// Avalanche networks with their seed Subnets and blockchains. A default
// configuration is embedded; a custom YAML file and ASH_ prefixed
// environment variables override it.
package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"

	"github.com/AshAvalanche/ash-go/pkg/asherrors"
	"github.com/AshAvalanche/ash-go/pkg/constants"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

//go:embed default.yml
var defaultConfig []byte

// Config is the library configuration.
type Config struct {
	AvalancheNetworks []NetworkConfig `mapstructure:"avalancheNetworks" yaml:"avalancheNetworks"`
}

// NetworkConfig seeds a network. IDs are CB58 strings: they are parsed
// when the network is loaded, not here, so that a bad entry surfaces with
// its network name attached.
type NetworkConfig struct {
	Name    string         `mapstructure:"name" yaml:"name"`
	Subnets []SubnetConfig `mapstructure:"subnets" yaml:"subnets"`
}

// SubnetConfig seeds a Subnet.
type SubnetConfig struct {
	ID          string             `mapstructure:"id" yaml:"id"`
	ControlKeys []string           `mapstructure:"controlKeys" yaml:"controlKeys"`
	Threshold   uint32             `mapstructure:"threshold" yaml:"threshold"`
	Blockchains []BlockchainConfig `mapstructure:"blockchains" yaml:"blockchains"`
}

// BlockchainConfig seeds a blockchain. RPCURL and VMType cannot be
// discovered from the P-Chain and are preserved across refreshes.
type BlockchainConfig struct {
	ID     string `mapstructure:"id" yaml:"id"`
	Name   string `mapstructure:"name" yaml:"name"`
	VMID   string `mapstructure:"vmId" yaml:"vmId,omitempty"`
	VMType string `mapstructure:"vmType" yaml:"vmType"`
	RPCURL string `mapstructure:"rpcUrl" yaml:"rpcUrl"`
}

// Load reads the configuration from configFile, or from the embedded
// default when configFile is empty. ASH_ prefixed environment variables
// override either source.
func Load(configFile string) (*Config, error) {
	return LoadFs(afero.NewOsFs(), configFile)
}

// LoadFs is Load on an explicit filesystem.
func LoadFs(fs afero.Fs, configFile string) (*Config, error) {
	v := viper.New()
	v.SetFs(fs)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(constants.ConfigEnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile == "" {
		if err := v.ReadConfig(bytes.NewReader(defaultConfig)); err != nil {
			return nil, fmt.Errorf("reading default configuration: %w", err)
		}
	} else {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading configuration file '%s': %w", configFile, err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("deserializing configuration: %w", err)
	}
	return config, nil
}

// GetNetwork returns the named network's seed.
func (c *Config) GetNetwork(name string) (*NetworkConfig, error) {
	for i := range c.AvalancheNetworks {
		if c.AvalancheNetworks[i].Name == name {
			return &c.AvalancheNetworks[i], nil
		}
	}
	return nil, &asherrors.NotFoundError{
		Scope:       "configuration",
		TargetType:  "network",
		TargetValue: name,
	}
}

// DumpDefault writes the embedded default configuration to configFile in
// YAML format. An existing file is only overwritten with force.
func DumpDefault(fs afero.Fs, configFile string, force bool) error {
	exists, err := afero.Exists(fs, configFile)
	if err != nil {
		return fmt.Errorf("checking configuration file '%s': %w", configFile, err)
	}
	if exists && !force {
		return fmt.Errorf("dumping configuration to '%s': file already exists", configFile)
	}

	// Round trip through the schema so the dump reflects what the library
	// actually understands.
	config := Config{}
	if err := yaml.Unmarshal(defaultConfig, &config); err != nil {
		return fmt.Errorf("deserializing default configuration: %w", err)
	}
	out, err := yaml.Marshal(&config)
	if err != nil {
		return fmt.Errorf("serializing default configuration: %w", err)
	}
	if err := afero.WriteFile(fs, configFile, out, 0o644); err != nil {
		return fmt.Errorf("dumping configuration to '%s': %w", configFile, err)
	}
	return nil
}
