package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/philipparndt/arview/pkg/orbit"
)

// Load reads the .env file from the current working directory and sets
// environment variables. If .env does not exist, Load returns an error but
// callers can ignore it and use system env or defaults. Pass one or more paths
// to load from specific files (e.g. ".env"); with no paths, ".env" is used.
func Load(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	return godotenv.Load(paths...)
}

// GetEnv returns the value of the environment variable named by key, or fallback
// if the variable is unset or empty.
func GetEnv(key, fallback string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return fallback
}

// GetEnvInt returns the integer value of the environment variable named by key,
// or fallback if the variable is unset, empty, or not a valid integer.
func GetEnvInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}

// GetEnvFloat is GetEnvInt for floating point values
func GetEnvFloat(key string, fallback float64) float64 {
	if s := os.Getenv(key); s != "" {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return fallback
}

// GetEnvBool accepts the forms strconv.ParseBool does
func GetEnvBool(key string, fallback bool) bool {
	if s := os.Getenv(key); s != "" {
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
	}
	return fallback
}

// Viewer is the runtime configuration of the viewer and its server
type Viewer struct {
	ListenAddr string
	WebRoot    string
	LogLevel   string
	LogFormat  string

	VRMPath  string
	GLBPath  string
	USDZPath string

	RotateSensitivity float64
	WheelSensitivity  float64
	MinRadius         float64
	MaxRadius         float64

	// DisplayScale multiplies the scale of every placed model
	DisplayScale float64
	// PlacementPolicy is "multiple" or "once"
	PlacementPolicy string
	FPS             int
	// Watch reloads the preview model when its file changes
	Watch bool
}

// FromEnv reads the ARVIEW_* variables, falling back to defaults
func FromEnv() Viewer {
	limits := orbit.DefaultLimits()
	return Viewer{
		ListenAddr: GetEnv("ARVIEW_ADDR", ":8080"),
		WebRoot:    GetEnv("ARVIEW_WEB_ROOT", "./web"),
		LogLevel:   GetEnv("ARVIEW_LOG_LEVEL", "info"),
		LogFormat:  GetEnv("ARVIEW_LOG_FORMAT", "text"),

		VRMPath:  GetEnv("ARVIEW_VRM_PATH", "./assets/model.vrm"),
		GLBPath:  GetEnv("ARVIEW_GLB_PATH", "./assets/model.glb"),
		USDZPath: GetEnv("ARVIEW_USDZ_PATH", "./assets/model.usdz"),

		RotateSensitivity: GetEnvFloat("ARVIEW_ROTATE_SENSITIVITY", limits.RotateSensitivity),
		WheelSensitivity:  GetEnvFloat("ARVIEW_WHEEL_SENSITIVITY", 0.001),
		MinRadius:         GetEnvFloat("ARVIEW_MIN_RADIUS", limits.MinRadius),
		MaxRadius:         GetEnvFloat("ARVIEW_MAX_RADIUS", limits.MaxRadius),

		DisplayScale:    GetEnvFloat("ARVIEW_DISPLAY_SCALE", 1.0),
		PlacementPolicy: strings.ToLower(GetEnv("ARVIEW_PLACEMENT", "multiple")),
		FPS:             GetEnvInt("ARVIEW_FPS", 60),
		Watch:           GetEnvBool("ARVIEW_WATCH", false),
	}
}

// Limits returns the camera rig limits with the configured overrides
func (v Viewer) Limits() orbit.Limits {
	l := orbit.DefaultLimits()
	l.RotateSensitivity = v.RotateSensitivity
	l.MinRadius = v.MinRadius
	l.MaxRadius = v.MaxRadius
	return l
}

// PlaceOnce reports whether placement is limited to a single model
func (v Viewer) PlaceOnce() bool {
	return v.PlacementPolicy == "once"
}
