package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/ini.v1"
)

var configFilePath string

type IniFile struct {
	*General
	*Midi
	*Session
	*Surface
}

type General struct {
	LogLevel string
}

type Midi struct {
	PortIn  string
	PortOut string
}

// Session tunes the device session, zero values mean the built in default.
type Session struct {
	Faders            int
	TouchBase         int
	HeartbeatInterval time.Duration
	PollInterval      time.Duration
}

// Surface is sent to the device once the session is up.
type Surface struct {
	TouchlessFaders  bool
	TouchSensitivity int
	MeterMode        int
	LCDMeterVertical bool  `ini:"lcd_meter_vertical"`
	LCDBacklight     int   `ini:"lcd_backlight"`
	TransportClick   bool
	Colours          []int `delim:","`

	// LitButtons are button labels, see gomcu.Names, whose LEDs are lit at start
	LitButtons []string `delim:","`
}

func Default() IniFile {
	return IniFile{
		&General{
			LogLevel: "",
		},
		&Midi{
			PortIn:  "MCU Mackie Control Port 1",
			PortOut: "MCU Mackie Control Port 1",
		},
		&Session{
			Faders:            9,
			TouchBase:         0x68,
			HeartbeatInterval: 5 * time.Second,
			PollInterval:      time.Millisecond,
		},
		&Surface{
			TouchlessFaders:  false,
			TouchSensitivity: 3,
			MeterMode:        0x05,
			LCDMeterVertical: false,
			LCDBacklight:     0x0F,
			TransportClick:   false,
			Colours:          []int{7, 7, 7, 7, 7, 7, 7, 7},
			LitButtons:       []string{},
		},
	}
}

var Config = Default()

// InitConfig loads the config file from the XDG config directory.
func InitConfig() error {
	path, err := xdg.ConfigFile("mcu-host/mcu-host.config")
	if err != nil {
		return err
	}
	return Load(path)
}

// Load merges the file at path into Config and writes the merged result
// back, so new settings show up in old files. A missing file is created.
func Load(path string) error {
	configFilePath = path
	cfg, err := ini.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		if err = os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		return save(path)
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	cfg.NameMapper = ini.TitleUnderscore
	cfg.ValueMapper = os.ExpandEnv
	sections := map[string]interface{}{
		"general": Config.General,
		"midi":    Config.Midi,
		"session": Config.Session,
		"surface": Config.Surface,
	}
	for name, target := range sections {
		if section, err := cfg.GetSection(name); err == nil {
			if err := section.StrictMapTo(target); err != nil {
				return fmt.Errorf("section [%s] in %s: %w", name, path, err)
			}
		}
	}
	//TODO: only save if changes
	return save(path)
}

func save(path string) error {
	newCfg := ini.Empty()
	if err := ini.ReflectFromWithMapper(newCfg, &Config, ini.TitleUnderscore); err != nil {
		return err
	}
	return newCfg.SaveTo(path)
}

func GetConfigFilePath() string {
	return configFilePath
}
