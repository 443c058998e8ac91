package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

const (
	configDir  string = ".sbld"
	configFile string = "config.yml"
)

// ProfileOverride describes an additional target profile defined in the
// config file. It is merged into the built-in profile table at startup.
type ProfileOverride struct {
	// Name of the profile as used by attach requests.
	Name string `yaml:"name"`
	// Human readable description.
	Description string `yaml:"description"`
	// OpenOCD interface config, relative to the OpenOCD scripts directory.
	Interface string `yaml:"interface"`
	// OpenOCD target config, relative to the OpenOCD scripts directory.
	Target string `yaml:"target"`
	// MCU name used to resolve the hardware description directory.
	MCU string `yaml:"mcu,omitempty"`
}

// Config defines all configuration options available to be set through the config file.
type Config struct {
	// GDBPath overrides the debugger binary ("gdb-multiarch" by default).
	GDBPath string `yaml:"gdb-path,omitempty"`
	// OpenOCDPath overrides the adapter binary ("openocd" by default).
	OpenOCDPath string `yaml:"openocd-path,omitempty"`
	// HardwarePath overrides the SBL_HW_PATH environment variable as the
	// root of the hardware description tree.
	HardwarePath string `yaml:"hardware-path,omitempty"`
	// ListenAddr is the default address for the JSON-RPC server.
	ListenAddr string `yaml:"listen-addr,omitempty"`
	// Profiles lists additional target profiles.
	Profiles []ProfileOverride `yaml:"profiles,omitempty"`
}

// LoadConfig attempts to populate a Config object from the config.yml file.
func LoadConfig() *Config {
	err := createConfigPath()
	if err != nil {
		fmt.Printf("Could not create config directory: %v.\n", err)
		return &Config{}
	}
	fullConfigFile, err := GetConfigFilePath(configFile)
	if err != nil {
		fmt.Printf("Unable to get config file path: %v.\n", err)
		return &Config{}
	}

	data, err := os.ReadFile(fullConfigFile)
	if err != nil {
		if err = writeDefaultConfig(fullConfigFile); err != nil {
			fmt.Printf("Error creating default config file: %v.\n", err)
		}
		return &Config{}
	}

	var c Config
	err = yaml.Unmarshal(data, &c)
	if err != nil {
		fmt.Printf("Unable to decode config file: %v.\n", err)
		return &Config{}
	}

	return &c
}

// SaveConfig will marshal and save the config struct to disk.
func SaveConfig(conf *Config) error {
	fullConfigFile, err := GetConfigFilePath(configFile)
	if err != nil {
		return err
	}

	out, err := yaml.Marshal(*conf)
	if err != nil {
		return err
	}

	return os.WriteFile(fullConfigFile, out, 0644)
}

func writeDefaultConfig(path string) error {
	return os.WriteFile(path, []byte(
		`# Configuration file for the sbld debug server.

# This is the default configuration file. Available options are provided, but disabled.
# Delete the leading hash mark to enable an item.

# Override the GDB binary used for the MI bridge.
# gdb-path: gdb-multiarch

# Override the OpenOCD binary.
# openocd-path: openocd

# Root directory of the hardware description tree.
# When unset the SBL_HW_PATH environment variable is used.
# hardware-path: /path/to/hw

# Default listen address of the JSON-RPC server.
# listen-addr: 127.0.0.1:9800

# Additional target profiles merged into the built-in table.
profiles:
  # - name: myboard
  #   description: Custom board via ST-LINK
  #   interface: stlink.cfg
  #   target: stm32f4x.cfg
  #   mcu: stm32f405
`), 0644)
}

func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configDir), nil
}

func createConfigPath() error {
	path, err := configPath()
	if err != nil {
		return err
	}
	return os.MkdirAll(path, 0700)
}

// GetConfigFilePath gets the full path to the given config file name.
func GetConfigFilePath(file string) (string, error) {
	path, err := configPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(path, file), nil
}
