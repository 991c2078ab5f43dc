package main

/**
Compile Linux:
sudo apt install clang libasound2-dev
**/

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
	"go.uber.org/zap"

	"github.com/normen/mcu-host/config"
	"github.com/normen/mcu-host/gomcu"
	"github.com/normen/mcu-host/logging"
	"github.com/normen/mcu-host/mcu"
	"github.com/normen/mcu-host/msg"
	"github.com/normen/mcu-host/surface"
)

var VERSION string = "v0.1.0"

var (
	configPath string
	logLevel   string
	stateFile  string
	demo       bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "mcu-host",
	Short: "Host for Mackie Control surfaces",
	Long: `Runs a session with a Mackie Control compatible surface connected
through a pair of MIDI ports. Port names and surface settings are read from
mcu-host.config in the user config directory.`,
	Version:      VERSION,
	SilenceUsage: true,
	RunE:         runSession,
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List all installed MIDI devices",
	Run: func(cmd *cobra.Command, args []string) {
		ShowMidiPorts()
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default is the XDG config dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.Flags().StringVar(&stateFile, "state-file", "", "Write the surface state as YAML to this file on exit")
	rootCmd.Flags().BoolVar(&demo, "demo", false, "Let the VPots, V-switches and jog wheel drive faders and colours")
	rootCmd.AddCommand(portsCmd)
}

func loadConfig() error {
	if configPath != "" {
		return config.Load(configPath)
	}
	return config.InitConfig()
}

func runSession(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	if logLevel == "" {
		logLevel = config.Config.LogLevel
	}
	if err := logging.Initialize(logLevel); err != nil {
		return err
	}
	defer logging.Sync()
	log := logging.GetLogger()
	log.Info("MCU host", zap.String("version", VERSION), zap.String("config", config.GetConfigFilePath()))

	transport, err := mcu.OpenPorts(config.Config.PortIn, config.Config.PortOut, log.Named("midi"))
	if err != nil {
		return err
	}
	model := surface.NewSurface(faderCount(), gomcu.Switch(config.Config.TouchBase))
	device := mcu.NewDevice(transport, mcu.Options{
		Faders:            config.Config.Faders,
		TouchBase:         gomcu.Switch(config.Config.TouchBase),
		HeartbeatInterval: config.Config.HeartbeatInterval,
		PollInterval:      config.Config.PollInterval,
		Logger:            log.Named("device"),
		Surface:           model,
	})

	var handlers mcu.Handlers
	if demo {
		handlers = NewDemo(device).Handlers()
	}
	onConnection := handlers.OnConnection
	handlers.OnConnection = func(state msg.ConnectionState) {
		log.Info("connection changed", zap.Bool("connected", state.Connected),
			zap.String("serial", state.Serial), zap.String("firmware", state.Firmware))
		if state.Connected && state.Firmware == "" {
			if err := device.RequestFirmwareVersion(); err != nil {
				log.Warn("firmware request failed", zap.Error(err))
			}
		}
		if onConnection != nil {
			onConnection(state)
		}
	}
	device.SetHandlers(handlers)

	if err := configureSurface(device); err != nil {
		device.Close()
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	err = device.Run(ctx)
	device.Close()
	if stateFile != "" {
		if werr := writeState(model, stateFile); werr != nil {
			log.Error("could not write state file", zap.String("path", stateFile), zap.Error(werr))
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, mcu.ErrClosed) {
		return nil
	}
	return err
}

func faderCount() int {
	if config.Config.Faders > 0 {
		return config.Config.Faders
	}
	return mcu.DefaultFaders
}

// configureSurface queues the [surface] settings, they go out once Run starts
func configureSurface(device *mcu.Device) error {
	s := config.Config.Surface
	if err := device.ConfigTouchless(s.TouchlessFaders); err != nil {
		return err
	}
	for i := 0; i < faderCount(); i++ {
		if err := device.ConfigTouchSensitivity(i, byte(s.TouchSensitivity)); err != nil {
			return err
		}
	}
	for i := 0; i < 8; i++ {
		if err := device.ConfigChannelMeterMode(i, byte(s.MeterMode)); err != nil {
			return err
		}
	}
	if err := device.ConfigLCDMeterMode(s.LCDMeterVertical); err != nil {
		return err
	}
	if err := device.ConfigLCDBacklight(s.LCDBacklight); err != nil {
		return err
	}
	if err := device.ConfigTransportClick(s.TransportClick); err != nil {
		return err
	}
	lit, err := buttonSwitches(s.LitButtons)
	if err != nil {
		return err
	}
	for _, sw := range lit {
		if err := device.SetLED(sw, gomcu.LEDOn); err != nil {
			return err
		}
	}
	if len(s.Colours) > 0 {
		var colours [gomcu.LCDSegments]byte
		for i := range colours {
			colours[i] = byte(s.Colours[i%len(s.Colours)])
		}
		if err := device.UpdateLCDColours(colours); err != nil {
			return err
		}
	}
	return nil
}

// buttonSwitches resolves button labels like "Play" or "Rec 1"
func buttonSwitches(names []string) ([]gomcu.Switch, error) {
	var switches []gomcu.Switch
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		sw, ok := gomcu.IDs[name]
		if !ok {
			return nil, fmt.Errorf("unknown button %q in lit_buttons", name)
		}
		switches = append(switches, sw)
	}
	return switches, nil
}

func writeState(model *surface.Surface, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := model.WriteYAML(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func ShowMidiPorts() {
	inputs := mcu.GetMidiInputs()
	for _, v := range inputs {
		fmt.Printf("MIDI Input: %s\n", v)
	}
	outputs := mcu.GetMidiOutputs()
	for _, v := range outputs {
		fmt.Printf("MIDI Output: %s\n", v)
	}
}
