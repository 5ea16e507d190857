// internal/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/corphon/novelgraph/internal/utils"
	"github.com/joho/godotenv"
)

// Thresholds holds every tunable θ named in the pipeline's heuristic
// formulas. All are configuration, not constants, so tests can override
// them (defaults are listed next to each field).
type Thresholds struct {
	// MinMentions is EntityExtractor's candidate-survival floor (default 3).
	MinMentions int `json:"min_mentions"`
	// AliasCoOccurrenceK is the co-occurrence count required to merge two
	// suffix-related candidate names into one alias set (default 2).
	AliasCoOccurrenceK int `json:"alias_co_occurrence_k"`
	// CoOccurrenceWindow is the sentence-window size used by both
	// RelationExtractor co-occurrence scoring and alias merging (default 3).
	CoOccurrenceWindow int `json:"co_occurrence_window"`
	// PatternWeightRatio multiplies a relation pattern's base lexicon weight;
	// a bare co-occurrence adds its weight unscaled (default 3).
	PatternWeightRatio float64 `json:"pattern_weight_ratio"`
	// DialogueAttributionWeight is the weight of an honorific/kinship
	// dialogue attribution (default 2).
	DialogueAttributionWeight float64 `json:"dialogue_attribution_weight"`
	// RelationStrengthK calibrates tanh(sum/K) so a single strong pattern
	// match alone reaches strength ≥ 0.7 (default 3.5).
	RelationStrengthK float64 `json:"relation_strength_k"`
	// ThetaMain is the importance floor for main-character classification
	// (default 0.5).
	ThetaMain float64 `json:"theta_main"`
	// MainChapterPresenceRatio classifies a character as main if present in
	// at least this fraction of chapters, regardless of ThetaMain (default 0.6).
	MainChapterPresenceRatio float64 `json:"main_chapter_presence_ratio"`
	// ThetaMainPlot is the contribution_score floor for an event to be
	// counted among main_plot_events (default 0.7).
	ThetaMainPlot float64 `json:"theta_main_plot"`
	// CausalImportanceFloor is the minimum importance_score both ends of a
	// candidate causal link must clear (default 0.3).
	CausalImportanceFloor float64 `json:"causal_importance_floor"`
	// HierarchyDelta is the minimum importance_score margin a parent event
	// must clear over a candidate sub-event (default 0.1).
	HierarchyDelta float64 `json:"hierarchy_delta"`
	// HierarchyWindow is the maximum sentence distance (in event sequence
	// positions) within which a sub-event can be attached (default 5).
	HierarchyWindow int `json:"hierarchy_window"`
	// RandomWalkRestart is the restart probability of the random-walk-with-
	// restart used for main-plot contribution scoring (default 0.15).
	RandomWalkRestart float64 `json:"random_walk_restart"`
	// RandomWalkIterations bounds the power-iteration loop for the random
	// walk (default 50).
	RandomWalkIterations int `json:"random_walk_iterations"`
	// EmotionPeakSigma is the number of standard deviations above/below the
	// moving-average baseline a chapter sentiment must clear to count as a
	// peak or trough (default 1.0).
	EmotionPeakSigma float64 `json:"emotion_peak_sigma"`
	// EmotionPeakWindow is the half-width of the moving-average baseline, in
	// chapters on each side of the chapter being tested (default 3).
	EmotionPeakWindow int `json:"emotion_peak_window"`
	// StateChangeThreshold is the minimum |delta| on a state axis that emits
	// a StateTransition (default 0.1).
	StateChangeThreshold float64 `json:"state_change_threshold"`
}

// DefaultThresholds returns the heuristic defaults named in the pipeline's
// module descriptions.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinMentions:               3,
		AliasCoOccurrenceK:        2,
		CoOccurrenceWindow:        3,
		PatternWeightRatio:        3.0,
		DialogueAttributionWeight: 2.0,
		RelationStrengthK:         3.5,
		ThetaMain:                 0.5,
		MainChapterPresenceRatio:  0.6,
		ThetaMainPlot:             0.7,
		CausalImportanceFloor:     0.3,
		HierarchyDelta:            0.1,
		HierarchyWindow:           5,
		RandomWalkRestart:         0.15,
		RandomWalkIterations:      50,
		EmotionPeakSigma:          1.0,
		EmotionPeakWindow:         3,
		StateChangeThreshold:      0.1,
	}
}

// Config is the process-wide configuration: server wiring, storage
// locations, and the analysis thresholds above.
type Config struct {
	Port        string
	DataDir     string
	LexiconDir  string
	LogDir      string
	DebugMode   bool

	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string
	Neo4jDatabase string

	Thresholds Thresholds
}

var (
	current     *Config
	currentMu   sync.RWMutex
	configPath  string
)

// Load reads configuration from the environment (and an optional .env
// file), falling back to defaults for anything unset.
func Load() (*Config, error) {
	godotenv.Load()

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		DataDir:       getEnvPath("DATA_DIR", "data"),
		LexiconDir:    getEnvPath("LEXICON_DIR", "lexicon"),
		LogDir:        getEnvPath("LOG_DIR", "logs"),
		DebugMode:     getEnvBool("DEBUG_MODE", true),
		Neo4jURI:      getEnv("NEO4J_URI", ""),
		Neo4jUser:     getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword: getEnv("NEO4J_PASSWORD", ""),
		Neo4jDatabase: getEnv("NEO4J_DATABASE", "neo4j"),
		Thresholds:    DefaultThresholds(),
	}

	cfg.Thresholds.MinMentions = getEnvInt("MIN_MENTIONS", cfg.Thresholds.MinMentions)
	cfg.Thresholds.AliasCoOccurrenceK = getEnvInt("ALIAS_CO_OCCURRENCE_K", cfg.Thresholds.AliasCoOccurrenceK)
	cfg.Thresholds.CoOccurrenceWindow = getEnvInt("CO_OCCURRENCE_WINDOW", cfg.Thresholds.CoOccurrenceWindow)
	cfg.Thresholds.PatternWeightRatio = getEnvFloat("PATTERN_WEIGHT_RATIO", cfg.Thresholds.PatternWeightRatio)
	cfg.Thresholds.DialogueAttributionWeight = getEnvFloat("DIALOGUE_ATTRIBUTION_WEIGHT", cfg.Thresholds.DialogueAttributionWeight)
	cfg.Thresholds.RelationStrengthK = getEnvFloat("RELATION_STRENGTH_K", cfg.Thresholds.RelationStrengthK)
	cfg.Thresholds.ThetaMain = getEnvFloat("THETA_MAIN", cfg.Thresholds.ThetaMain)
	cfg.Thresholds.MainChapterPresenceRatio = getEnvFloat("MAIN_CHAPTER_PRESENCE_RATIO", cfg.Thresholds.MainChapterPresenceRatio)
	cfg.Thresholds.ThetaMainPlot = getEnvFloat("THETA_MAIN_PLOT", cfg.Thresholds.ThetaMainPlot)
	cfg.Thresholds.CausalImportanceFloor = getEnvFloat("CAUSAL_IMPORTANCE_FLOOR", cfg.Thresholds.CausalImportanceFloor)
	cfg.Thresholds.HierarchyDelta = getEnvFloat("HIERARCHY_DELTA", cfg.Thresholds.HierarchyDelta)
	cfg.Thresholds.HierarchyWindow = getEnvInt("HIERARCHY_WINDOW", cfg.Thresholds.HierarchyWindow)
	cfg.Thresholds.RandomWalkRestart = getEnvFloat("RANDOM_WALK_RESTART", cfg.Thresholds.RandomWalkRestart)
	cfg.Thresholds.RandomWalkIterations = getEnvInt("RANDOM_WALK_ITERATIONS", cfg.Thresholds.RandomWalkIterations)
	cfg.Thresholds.EmotionPeakSigma = getEnvFloat("EMOTION_PEAK_SIGMA", cfg.Thresholds.EmotionPeakSigma)
	cfg.Thresholds.EmotionPeakWindow = getEnvInt("EMOTION_PEAK_WINDOW", cfg.Thresholds.EmotionPeakWindow)
	cfg.Thresholds.StateChangeThreshold = getEnvFloat("STATE_CHANGE_THRESHOLD", cfg.Thresholds.StateChangeThreshold)

	return cfg, nil
}

// InitConfig loads configuration and, if a previously-saved thresholds file
// exists under dataDir, overlays it on top of the environment-derived
// defaults (so operators can tune thresholds without touching env vars).
func InitConfig(dataDir string) error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	cfg.DataDir = dataDir
	configPath = filepath.Join(dataDir, "thresholds.json")

	if data, err := os.ReadFile(configPath); err == nil {
		var saved Thresholds
		if json.Unmarshal(data, &saved) == nil {
			cfg.Thresholds = saved
		}
	}

	currentMu.Lock()
	current = cfg
	currentMu.Unlock()

	return SaveThresholds()
}

// Current returns the process-wide configuration, loading defaults if
// InitConfig was never called.
func Current() *Config {
	currentMu.RLock()
	defer currentMu.RUnlock()
	if current == nil {
		cfg, err := Load()
		if err != nil {
			utils.GetLogger().Error("config load failed, using bare defaults", map[string]interface{}{"error": err.Error()})
			fallback := &Config{Thresholds: DefaultThresholds()}
			return fallback
		}
		return cfg
	}
	return current
}

// SaveThresholds persists the active Thresholds to dataDir/thresholds.json
// so operators can hand-tune and restart without re-exporting every env var.
func SaveThresholds() error {
	currentMu.RLock()
	cfg := current
	currentMu.RUnlock()
	if cfg == nil {
		return fmt.Errorf("config: not initialized")
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("config: create dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg.Thresholds, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal thresholds: %w", err)
	}
	return os.WriteFile(configPath, data, 0644)
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvPath(key, defaultValue string) string {
	path := getEnv(key, defaultValue)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0755); err != nil {
			fmt.Printf("warning: could not create directory %s: %v\n", path, err)
		}
	}
	return path
}

func getEnvBool(key string, defaultValue bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	return v == "true" || v == "1" || v == "yes"
}

func getEnvInt(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	var f float64
	if _, err := fmt.Sscanf(v, "%g", &f); err != nil {
		return defaultValue
	}
	return f
}
