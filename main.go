package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hypebeast/go-osc/osc"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/schollz/trackstudio/internal/audio"
	"github.com/schollz/trackstudio/internal/capture"
	cfgpkg "github.com/schollz/trackstudio/internal/config"
	"github.com/schollz/trackstudio/internal/effects"
	"github.com/schollz/trackstudio/internal/model"
	"github.com/schollz/trackstudio/internal/playback"
	"github.com/schollz/trackstudio/internal/storage"
	"github.com/schollz/trackstudio/internal/studio"
	"github.com/schollz/trackstudio/internal/supercollider"
	"github.com/schollz/trackstudio/internal/types"
	"github.com/schollz/trackstudio/internal/views"
)

var (
	Version = "dev"

	// Command-line configuration
	config struct {
		configPath  string
		project     string
		debug       string
		maxDuration int
		sc          bool
		port        int
	}
)

var rootCmd = &cobra.Command{
	Use:   "trackstudio",
	Short: "A multi-layer recorder and mixer for the terminal",
	Long: `trackstudio records takes from an input device, stacks them as layers and
plays them back together with per-layer volume and mute and a master gain.

Features:
• Timed recording with a live level meter
• Layer mixing with simulated or SuperCollider playback
• Effects settings with built-in and custom presets
• Projects saved automatically to a folder`,
	Version:      Version,
	SilenceUsage: true,
	RunE:         runStudio,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&config.configPath, "config", "c", "trackstudio.toml",
		"Path to the TOML configuration file (missing file uses defaults)")
	flags.StringVarP(&config.project, "project", "p", "",
		"Project directory for takes and saved state (overrides project.dir)")
	flags.StringVarP(&config.debug, "log", "l", "",
		"Write debug logs to specified file (empty disables)")
	flags.IntVar(&config.maxDuration, "max-duration", 0,
		"Longest take in seconds (overrides recording.max_duration_seconds)")
	flags.BoolVar(&config.sc, "sc", false,
		"Play layers through SuperCollider over OSC")
	flags.IntVar(&config.port, "port", 0,
		"OSC port SuperCollider listens on (overrides supercollider.port)")

	rootCmd.AddCommand(presetsCmd, layersCmd, initConfigCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogging routes the standard logger to the --log file, or discards it.
func setupLogging() (func(), error) {
	if config.debug == "" {
		log.SetOutput(io.Discard)
		return func() {}, nil
	}
	f, err := tea.LogToFile(config.debug, "debug")
	if err != nil {
		return nil, err
	}
	// file:line prefixes so editors can jump to the source
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Debug logging enabled")
	return func() { f.Close() }, nil
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig() (*cfgpkg.Config, error) {
	cfg, exists, err := cfgpkg.Load(config.configPath)
	if err != nil {
		return nil, err
	}
	if exists {
		log.Printf("Loaded config from %s", config.configPath)
	}
	if config.project != "" {
		cfg.Project.Dir = config.project
	}
	if config.maxDuration > 0 {
		cfg.Recording.MaxDurationSeconds = config.maxDuration
	}
	if config.sc {
		cfg.Playback.Backend = cfgpkg.BackendSuperCollider
	}
	if config.port > 0 {
		cfg.SuperCollider.Port = config.port
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newPlayer builds the playback backend. For SuperCollider it also starts
// the OSC server that receives completion messages and returns the client
// effects settings are forwarded to.
func newPlayer(cfg *cfgpkg.Config) (playback.Player, supercollider.Sender) {
	if cfg.Playback.Backend != cfgpkg.BackendSuperCollider {
		sim := playback.NewSimulator()
		sim.DurationOf = func(ref types.SourceRef) (time.Duration, error) {
			return audio.Duration(string(ref))
		}
		log.Printf("Using simulated playback")
		return sim, nil
	}

	client := osc.NewClient(cfg.SuperCollider.Host, cfg.SuperCollider.Port)
	player := supercollider.NewPlayer(client)
	d := osc.NewStandardDispatcher()
	if err := player.Register(d); err != nil {
		log.Printf("Error registering OSC handlers: %v", err)
	}
	server := &osc.Server{Addr: fmt.Sprintf(":%d", cfg.SuperCollider.ListenPort), Dispatcher: d}
	go func() {
		log.Printf("Starting OSC server on port %d", cfg.SuperCollider.ListenPort)
		if err := server.ListenAndServe(); err != nil {
			log.Printf("Error starting OSC server: %v", err)
		}
	}()
	log.Printf("Sending to SuperCollider at %s:%d", cfg.SuperCollider.Host, cfg.SuperCollider.Port)
	return player, client
}

func runStudio(cmd *cobra.Command, args []string) error {
	if !isTerminal(os.Stdout) {
		return fmt.Errorf("trackstudio needs a terminal; use the presets or layers commands for plain output")
	}
	closeLog, err := setupLogging()
	if err != nil {
		return err
	}
	defer closeLog()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dir := cfg.Project.Dir

	lock, err := storage.Lock(dir)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	player, fxClient := newPlayer(cfg)
	device := capture.NewDevice(capture.Config{
		Dir:           cfg.TakesDir(),
		SampleRate:    cfg.Recording.SampleRate,
		MeterInterval: cfg.MeterInterval(),
	})

	var st *studio.Studio
	st = studio.New(device, player, studio.Options{
		MaxDurationSeconds: cfg.Recording.MaxDurationSeconds,
		PaletteSize:        cfg.Playback.PaletteSize,
		Renderer:           audio.NewRenderer(dir),
		OnChange: func() {
			if cfg.Project.AutoSave {
				storage.AutoSave(dir, st.Snapshot)
			}
		},
	})

	if saved, err := storage.LoadState(dir); err == nil {
		if err := st.Restore(context.Background(), saved); err != nil {
			log.Printf("Error restoring %s: %v", dir, err)
		} else {
			log.Printf("Loaded saved state successfully from %s", dir)
		}
	} else {
		log.Printf("No saved state found or error loading from %s: %v", dir, err)
	}

	if fxClient != nil {
		st.Store().SetObserver(func(s effects.Settings) {
			if err := supercollider.SendSettings(fxClient, s); err != nil {
				log.Printf("Error sending effects: %v", err)
			}
		})
		if err := supercollider.SendSettings(fxClient, st.Store().Settings()); err != nil {
			log.Printf("Error sending effects: %v", err)
		}
	}

	saveFolder := ""
	if cfg.Project.AutoSave {
		saveFolder = dir
	}
	setupCleanupOnExit(st, saveFolder)

	views.SetColorProfile(termenv.EnvColorProfile())
	m := model.NewModel(st, saveFolder)
	p := tea.NewProgram(newStudioModel(m), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Printf("Error: %v", err)
	}

	shutdown(st, saveFolder)
	return nil
}

// shutdown commits a running take, stops playback and writes the project.
func shutdown(st *studio.Studio, saveFolder string) {
	ctx := context.Background()
	if st.IsRecording() {
		if _, err := st.StopRecording(ctx); err != nil {
			log.Printf("Error stopping recording: %v", err)
		}
	}
	st.StopPlayback(ctx)
	if saveFolder == "" {
		return
	}
	if err := storage.Flush(saveFolder, st.Snapshot); err != nil {
		log.Printf("Error saving %s: %v", saveFolder, err)
	}
}

func setupCleanupOnExit(st *studio.Studio, saveFolder string) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-c
		shutdown(st, saveFolder)
		os.Exit(0)
	}()
}
