package types

// SourceRef points at a finalized audio artifact. For the WAV capture device it
// is the absolute path of the take on disk.
type SourceRef string

// SessionState is the lifecycle state of one capture attempt.
type SessionState int

const (
	SessionIdle SessionState = iota
	SessionRecording
	SessionFinalizing
	SessionCommitted
	SessionFailed
)

func (s SessionState) String() string {
	switch s {
	case SessionIdle:
		return "idle"
	case SessionRecording:
		return "recording"
	case SessionFinalizing:
		return "finalizing"
	case SessionCommitted:
		return "committed"
	case SessionFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// LoadState tracks whether a layer has a playback handle.
type LoadState int

const (
	Unloaded LoadState = iota
	Loading
	Ready
	LoadFailed
)

func (s LoadState) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case LoadFailed:
		return "load failed"
	default:
		return "unknown"
	}
}

// PresetCategory groups presets in the catalog.
type PresetCategory string

const (
	CategoryMaster     PresetCategory = "Master"
	CategoryVocal      PresetCategory = "Vocal"
	CategoryInstrument PresetCategory = "Instrument"
	CategoryCustom     PresetCategory = "Custom"
)

// ParseCategory maps a user supplied name onto a category, falling back to Custom.
func ParseCategory(name string) PresetCategory {
	switch PresetCategory(name) {
	case CategoryMaster, CategoryVocal, CategoryInstrument:
		return PresetCategory(name)
	default:
		return CategoryCustom
	}
}

// ViewMode selects which console page is rendered.
type ViewMode int

const (
	LayersView ViewMode = iota
	EffectsView
	PresetsView
)

const (
	// LevelHistorySize bounds the meter history kept while recording.
	LevelHistorySize = 20
	// PaletteSize is the number of layer color tags before they repeat.
	PaletteSize = 8
	// DefaultMaxDurationSeconds caps a take when no configuration overrides it.
	DefaultMaxDurationSeconds = 60
	// MeterFloorDB is the quietest reading a capture device reports.
	MeterFloorDB = -160.0
)
