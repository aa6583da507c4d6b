package storage

import (
	"compress/gzip"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	jsoniter "github.com/json-iterator/go"

	"github.com/schollz/trackstudio/internal/effects"
	"github.com/schollz/trackstudio/internal/layer"
	"github.com/schollz/trackstudio/internal/preset"
	"github.com/schollz/trackstudio/internal/types"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DataFile is the project file inside a project folder.
const DataFile = "data.json.gz"

// AutoSaveDelay is how long AutoSave waits for further changes.
const AutoSaveDelay = time.Second

const projectVersion = 1

// Project is everything a session saves.
type Project struct {
	Version        int              `json:"version"`
	SavedAt        time.Time        `json:"saved_at"`
	Layers         []layer.Layer    `json:"layers"`
	MasterVolume   float64          `json:"master_volume"`
	Settings       effects.Settings `json:"settings"`
	ActivePresetID string           `json:"active_preset_id,omitempty"`
	CustomPresets  []preset.Preset  `json:"custom_presets,omitempty"`
}

// DoSave writes p to folder/data.json.gz. Layer sources inside the folder are
// stored relative to it so the folder can be moved.
func DoSave(folder string, p Project) error {
	if err := os.MkdirAll(folder, 0755); err != nil {
		log.Printf("Error creating save folder: %v", err)
		return err
	}
	abs, err := filepath.Abs(folder)
	if err != nil {
		return err
	}

	p.Version = projectVersion
	p.SavedAt = time.Now()
	layers := make([]layer.Layer, len(p.Layers))
	for i, l := range p.Layers {
		l.Source = relativize(abs, l.Source)
		layers[i] = l
	}
	p.Layers = layers

	data, err := json.Marshal(p)
	if err != nil {
		log.Printf("Error marshaling project: %v", err)
		return err
	}

	tmp, err := os.CreateTemp(folder, ".data-*.json.gz")
	if err != nil {
		log.Printf("Error creating save file: %v", err)
		return err
	}
	gz := gzip.NewWriter(tmp)
	if _, err := gz.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := gz.Close(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), filepath.Join(folder, DataFile)); err != nil {
		os.Remove(tmp.Name())
		log.Printf("Error writing save file: %v", err)
		return err
	}
	log.Printf("Saved %d layers to %s", len(p.Layers), folder)
	return nil
}

// LoadState reads folder/data.json.gz, resolving relative layer sources
// against the folder.
func LoadState(folder string) (Project, error) {
	f, err := os.Open(filepath.Join(folder, DataFile))
	if err != nil {
		return Project{}, err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return Project{}, fmt.Errorf("read %s: %w", DataFile, err)
	}
	defer gz.Close()
	data, err := io.ReadAll(gz)
	if err != nil {
		return Project{}, fmt.Errorf("read %s: %w", DataFile, err)
	}

	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		return Project{}, fmt.Errorf("decode %s: %w", DataFile, err)
	}
	if p.Version > projectVersion {
		return Project{}, fmt.Errorf("project version %d is newer than supported %d", p.Version, projectVersion)
	}

	abs, err := filepath.Abs(folder)
	if err != nil {
		return Project{}, err
	}
	for i := range p.Layers {
		if src := string(p.Layers[i].Source); src != "" && !filepath.IsAbs(src) {
			p.Layers[i].Source = types.SourceRef(filepath.Join(abs, src))
		}
	}
	log.Printf("Loaded %d layers from %s", len(p.Layers), folder)
	return p, nil
}

func relativize(folder string, ref types.SourceRef) types.SourceRef {
	src := string(ref)
	if !filepath.IsAbs(src) {
		return ref
	}
	rel, err := filepath.Rel(folder, src)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ref
	}
	return types.SourceRef(rel)
}

var (
	autoSaveMu     sync.Mutex
	autoSaveTimers = map[string]*time.Timer{}
)

// AutoSave schedules a save of folder. Calls within AutoSaveDelay of each
// other collapse into one save of the latest snapshot.
func AutoSave(folder string, snapshot func() Project) {
	autoSaveMu.Lock()
	defer autoSaveMu.Unlock()
	if t, ok := autoSaveTimers[folder]; ok {
		t.Stop()
	}
	autoSaveTimers[folder] = time.AfterFunc(AutoSaveDelay, func() {
		autoSaveMu.Lock()
		delete(autoSaveTimers, folder)
		autoSaveMu.Unlock()
		if err := DoSave(folder, snapshot()); err != nil {
			log.Printf("Autosave failed: %v", err)
		}
	})
}

// Flush runs any pending autosave for folder immediately.
func Flush(folder string, snapshot func() Project) error {
	autoSaveMu.Lock()
	t, ok := autoSaveTimers[folder]
	if ok {
		t.Stop()
		delete(autoSaveTimers, folder)
	}
	autoSaveMu.Unlock()
	if !ok {
		return nil
	}
	return DoSave(folder, snapshot())
}

// Lock takes an exclusive lock on a project folder so two sessions cannot
// write the same project. Call Unlock on the result when done.
func Lock(folder string) (*flock.Flock, error) {
	if err := os.MkdirAll(folder, 0755); err != nil {
		return nil, err
	}
	fl := flock.New(filepath.Join(folder, ".lock"))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", folder, err)
	}
	if !ok {
		return nil, fmt.Errorf("project %s is open in another session", folder)
	}
	return fl, nil
}
