package config

// Preset names.
const (
	PresetDefault = "default"
	PresetMinimal = "minimal"
	PresetLaptop  = "laptop"
)

// Presets lists the built-in block tables.
func Presets() []string {
	return []string{PresetDefault, PresetMinimal, PresetLaptop}
}

// BlockPreset returns the block table for a named preset. If the name is
// not recognized, the default table is returned; Validate rejects such
// names.
func BlockPreset(name string) []BlockConfig {
	switch name {
	case PresetMinimal:
		return minimalPreset()
	case PresetLaptop:
		return laptopPreset()
	default:
		return defaultPreset()
	}
}

const sep = " | "

// defaultPreset is a desktop bar:
//
//	webcam | OBS | recording | mic | date | ram | cpu | gpu | volume | time
//
// Presence and volume blocks are signal-driven; run
// "pkill -RTMIN+1 pulsebar" from the volume keys.
func defaultPreset() []BlockConfig {
	return []BlockConfig{
		{Producer: "webcam", Signal: 4, PadRight: sep, Label: "📸"},
		{Producer: "proc", Interval: 2, Signal: 2, PadRight: sep, Arg: "obs", Label: "🎥 OBS"},
		{Producer: "proc", Interval: 2, Signal: 2, PadRight: sep, Arg: "obs-ffmpeg-mux", Label: "🔴 Recording"},
		{Producer: "mic", Signal: 3, PadRight: sep},
		{Producer: "date", Interval: 3600, PadLeft: "📅 ", PadRight: sep},
		{Producer: "ram", Interval: 30, PadLeft: "🧠 ", PadRight: sep},
		{Producer: "cpu_all", Interval: 2, PadLeft: "💻 ", PadRight: sep},
		{Producer: "gpu_all", Interval: 2, PadLeft: "🚀 ", PadRight: sep},
		{Producer: "volume", Signal: 1, PadRight: sep},
		{Producer: "time", Interval: 60, PadLeft: "⏰ "},
	}
}

// minimalPreset shows only the date and time.
func minimalPreset() []BlockConfig {
	return []BlockConfig{
		{Producer: "date", Interval: 3600, PadRight: sep},
		{Producer: "time", Interval: 60},
	}
}

// laptopPreset replaces the GPU and presence blocks with disk and load.
func laptopPreset() []BlockConfig {
	return []BlockConfig{
		{Producer: "disk", Interval: 60, PadLeft: "💾 ", PadRight: sep, Arg: "/"},
		{Producer: "load", Interval: 5, PadLeft: "⚙ ", PadRight: sep},
		{Producer: "ram", Interval: 30, PadLeft: "🧠 ", PadRight: sep},
		{Producer: "cpu", Interval: 2, PadLeft: "💻 ", PadRight: sep},
		{Producer: "volume", Signal: 1, PadRight: sep},
		{Producer: "date", Interval: 3600, PadLeft: "📅 ", PadRight: sep},
		{Producer: "time", Interval: 60, PadLeft: "⏰ "},
	}
}
