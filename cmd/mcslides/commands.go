package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ivlev/mcslides/internal/config"
	"github.com/ivlev/mcslides/internal/machine"
	"github.com/ivlev/mcslides/internal/slideplayer"
)

var (
	outputPath string
	startModes []string
	advance    float64
	watchDelay time.Duration
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load and validate the machine config",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := machine.Load(cmd.Context(), machineOptions())
		if err != nil {
			return err
		}
		printSummary(m)
		fmt.Println("[+] Config is valid")
		return nil
	},
}

var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Print the normalized media config as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := machine.Load(cmd.Context(), machineOptions())
		if err != nil {
			return err
		}
		if outputPath == "" {
			return slideplayer.EncodeConfig(os.Stdout, m.Normalized())
		}
		if err := slideplayer.WriteConfig(m.Normalized(), outputPath); err != nil {
			return err
		}
		fmt.Printf("[+] Written: %s\n", outputPath)
		return nil
	},
}

var playCmd = &cobra.Command{
	Use:   "play [event[:key=value,...]]...",
	Short: "Post events to the slide player and show what each target displays",
	Long: `Posts each event in order to an in-memory display. Event parameters
can follow the event name, for example "player_score:player=1,score=100".
The simulated clock is advanced by --advance seconds after every event.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		m, err := machine.Load(ctx, machineOptions())
		if err != nil {
			return err
		}
		for _, mode := range startModes {
			if err := m.StartMode(ctx, mode); err != nil {
				return err
			}
		}

		for _, arg := range args {
			event, kwargs := parseEvent(arg)
			if err := m.Post(ctx, event, kwargs); err != nil {
				return err
			}
			m.Display.Advance(advance)
			fmt.Printf("[*] %s\n", event)
			for _, name := range m.Display.TargetNames() {
				t := m.Display.TargetByName(name)
				line := fmt.Sprintf("    %s: %s", name, t.CurrentSlideName())
				if tr, ok := t.Transition(); ok {
					line += fmt.Sprintf(" (%s %.0f%%)", tr.Type, tr.Progress()*100)
				}
				fmt.Println(line)
			}
		}
		return nil
	},
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of the mcslides settings file",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := config.Schema()
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Validate the machine config again on every change",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("[*] Watching %s\n", cfg.MachinePath)
		return machine.Watch(cmd.Context(), machineOptions(), watchDelay, func(m *machine.Machine, err error) {
			if err != nil {
				fmt.Printf("[!] %v\n", err)
				return
			}
			printSummary(m)
			fmt.Println("[+] Config is valid")
		})
	},
}

func init() {
	normalizeCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write to a file instead of stdout")
	playCmd.Flags().StringSliceVar(&startModes, "mode", nil, "modes to start before posting events")
	playCmd.Flags().Float64Var(&advance, "advance", 0, "seconds to advance the clock after each event")
	watchCmd.Flags().DurationVar(&watchDelay, "debounce", machine.DefaultDebounce, "wait for saves to settle")
}

func printSummary(m *machine.Machine) {
	fmt.Printf("[*] Targets: %s\n", strings.Join(m.Display.TargetNames(), ", "))
	fmt.Printf("[*] Slides: %d | Widgets: %d | Animations: %d | Videos: %d\n",
		len(m.Slides), len(m.Widgets), len(m.Animations), len(m.Videos.Names()))
	fmt.Printf("[*] Audio: %d Hz, %d ch, buffer %d (%s)\n",
		m.Audio.SampleRate, m.Audio.AudioChannels, m.Audio.BufferSamples, m.Audio.BufferLatency())
	fmt.Printf("[*] Modes: %s | slide_player events: %s\n",
		strings.Join(m.Modes(), ", "), strings.Join(m.Player.Events(), ", "))
	logger.Debug("machine summary printed", zap.String("path", cfg.MachinePath))
}

// parseEvent splits "event:key=value,key=value". Values that parse as
// numbers or booleans keep that type.
func parseEvent(arg string) (string, map[string]any) {
	event, params, found := strings.Cut(arg, ":")
	if !found || params == "" {
		return event, nil
	}
	kwargs := make(map[string]any)
	for _, pair := range strings.Split(params, ",") {
		k, v, _ := strings.Cut(pair, "=")
		if k = strings.TrimSpace(k); k != "" {
			kwargs[k] = parseValue(strings.TrimSpace(v))
		}
	}
	return event, kwargs
}

func parseValue(s string) any {
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}
