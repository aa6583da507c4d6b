package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	cfgpkg "github.com/schollz/trackstudio/internal/config"
	"github.com/schollz/trackstudio/internal/preset"
	"github.com/schollz/trackstudio/internal/storage"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List built-in presets and the project's custom presets",
	RunE: func(cmd *cobra.Command, args []string) error {
		closeLog, err := setupLogging()
		if err != nil {
			return err
		}
		defer closeLog()
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return writePresets(cmd.OutOrStdout(), cfg.Project.Dir, colorizeOutput(cmd.OutOrStdout()))
	},
}

var layersCmd = &cobra.Command{
	Use:   "layers",
	Short: "List the layers saved in the project",
	RunE: func(cmd *cobra.Command, args []string) error {
		closeLog, err := setupLogging()
		if err != nil {
			return err
		}
		defer closeLog()
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return writeLayers(cmd.OutOrStdout(), cfg.Project.Dir, colorizeOutput(cmd.OutOrStdout()))
	},
}

var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Write a configuration file with the default settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfgpkg.CreateSample(config.configPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", config.configPath)
		return nil
	},
}

func colorizeOutput(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isTerminal(f)
}

// writePresets prints the catalog, including custom presets saved in dir.
func writePresets(w io.Writer, dir string, colorize bool) error {
	catalog := preset.NewCatalog()
	if saved, err := storage.LoadState(dir); err == nil {
		for _, p := range saved.CustomPresets {
			if err := catalog.Import(p); err != nil {
				fmt.Fprintf(os.Stderr, "skipping preset %q: %v\n", p.Name, err)
			}
		}
	}

	rows := make([][]string, 0, catalog.Len())
	for _, p := range catalog.List() {
		kind := "built-in"
		if !p.BuiltIn {
			kind = "custom"
		}
		def := ""
		if p.IsDefault {
			def = "yes"
		}
		rows = append(rows, []string{
			p.Name,
			string(p.Category),
			kind,
			def,
			fmt.Sprintf("%+.1f dB", p.Settings.OutputGainDB),
		})
	}
	headers := []string{"Name", "Category", "Kind", "Default", "Output"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight}
	_, err := fmt.Fprintln(w, renderTable(headers, rows, aligns, colorize))
	return err
}

// writeLayers prints the layers of the project saved in dir.
func writeLayers(w io.Writer, dir string, colorize bool) error {
	saved, err := storage.LoadState(dir)
	if err != nil {
		return fmt.Errorf("no saved project in %s: %w", dir, err)
	}

	rows := make([][]string, 0, len(saved.Layers))
	for i, l := range saved.Layers {
		muted := ""
		if l.Muted {
			muted = "yes"
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			l.DisplayName,
			fmt.Sprintf("%.0f%%", l.Volume*100),
			muted,
			strconv.Itoa(l.ColorTag),
			string(l.Source),
		})
	}
	headers := []string{"#", "Name", "Volume", "Muted", "Color", "Source"}
	aligns := []columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignRight, alignLeft}
	if _, err := fmt.Fprintln(w, renderTable(headers, rows, aligns, colorize)); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "master %.0f%%, %d custom presets\n", saved.MasterVolume*100, len(saved.CustomPresets))
	return err
}
