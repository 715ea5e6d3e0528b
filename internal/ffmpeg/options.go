package ffmpeg

import (
	"fmt"
	"strings"
)

// OptionType represents a strongly typed FFmpeg input option
type OptionType string

// FFmpeg option constants
const (
	OptionRTSPOverTCP        OptionType = "rtsp_tcp"
	OptionGeneratePTS        OptionType = "genpts"
	OptionIgnoreDTS          OptionType = "igndts"
	OptionIgnoreErrors       OptionType = "ignore_err"
	OptionNoBuffer           OptionType = "nobuffer"
	OptionLowLatency         OptionType = "low_latency"
	OptionWallclockTimestamp OptionType = "wallclock_ts"
)

// OptionCategory represents option categories
type OptionCategory string

const (
	CategoryTransport   OptionCategory = "Transport"
	CategoryTiming      OptionCategory = "Timing"
	CategoryErrorHandle OptionCategory = "Error Handling"
	CategoryPerformance OptionCategory = "Performance"
)

// Option describes an FFmpeg input flag with metadata
type Option struct {
	Key           OptionType     `json:"key"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Category      OptionCategory `json:"category"`
	AppDefault    bool           `json:"app_default"`
	ConflictsWith []OptionType   `json:"conflicts_with,omitempty"`
}

// AllOptions contains every supported input option
var AllOptions = []Option{
	{
		Key:         OptionRTSPOverTCP,
		Name:        "RTSP over TCP",
		Description: "Force interleaved TCP transport (avoids UDP packet loss on grabs)",
		Category:    CategoryTransport,
		AppDefault:  true,
	},
	{
		Key:           OptionGeneratePTS,
		Name:          "Generate PTS",
		Description:   "Generate presentation timestamps for streams without them",
		Category:      CategoryTiming,
		ConflictsWith: []OptionType{OptionWallclockTimestamp},
	},
	{
		Key:         OptionIgnoreDTS,
		Name:        "Ignore DTS",
		Description: "Ignore decode timestamps to handle corrupted streams",
		Category:    CategoryErrorHandle,
	},
	{
		Key:         OptionIgnoreErrors,
		Name:        "Ignore Errors",
		Description: "Continue decoding despite stream errors",
		Category:    CategoryErrorHandle,
	},
	{
		Key:         OptionNoBuffer,
		Name:        "No Input Buffer",
		Description: "Disable input buffering so the first decodable frame is used",
		Category:    CategoryPerformance,
	},
	{
		Key:         OptionLowLatency,
		Name:        "Low Latency Mode",
		Description: "Optimize for minimal latency",
		Category:    CategoryPerformance,
	},
	{
		Key:           OptionWallclockTimestamp,
		Name:          "Wallclock Timestamps",
		Description:   "Use wallclock as timestamps",
		Category:      CategoryTiming,
		ConflictsWith: []OptionType{OptionGeneratePTS},
	},
}

// GetOptionByKey returns an option by its key
func GetOptionByKey(key OptionType) *Option {
	for i := range AllOptions {
		if AllOptions[i].Key == key {
			return &AllOptions[i]
		}
	}
	return nil
}

// GetDefaultOptions returns options enabled by default
func GetDefaultOptions() []OptionType {
	var defaults []OptionType
	for _, opt := range AllOptions {
		if opt.AppDefault {
			defaults = append(defaults, opt.Key)
		}
	}
	return defaults
}

// ParseOptions converts option keys (e.g. from config) into OptionTypes and validates them.
func ParseOptions(keys []string) ([]OptionType, error) {
	options := make([]OptionType, 0, len(keys))
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		options = append(options, OptionType(key))
	}
	if err := ValidateOptions(options); err != nil {
		return nil, err
	}
	return options, nil
}

// ValidateOptions rejects unknown options and conflicting combinations
func ValidateOptions(selected []OptionType) error {
	set := make(map[OptionType]bool, len(selected))
	for _, key := range selected {
		if GetOptionByKey(key) == nil {
			return fmt.Errorf("unknown ffmpeg option: %s", key)
		}
		set[key] = true
	}

	for _, key := range selected {
		for _, conflict := range GetOptionByKey(key).ConflictsWith {
			if set[conflict] {
				return fmt.Errorf("ffmpeg option %s conflicts with %s", key, conflict)
			}
		}
	}
	return nil
}

// InputArgs returns the arguments for options that must precede -i
func InputArgs(options []OptionType) []string {
	var args []string
	var fflags []string

	for _, option := range options {
		switch option {
		case OptionRTSPOverTCP:
			args = append(args, "-rtsp_transport", "tcp")
		case OptionGeneratePTS:
			fflags = append(fflags, "+genpts")
		case OptionIgnoreDTS:
			fflags = append(fflags, "+igndts")
		case OptionNoBuffer:
			fflags = append(fflags, "+nobuffer")
		case OptionIgnoreErrors:
			args = append(args, "-err_detect", "ignore_err")
		case OptionWallclockTimestamp:
			args = append(args, "-use_wallclock_as_timestamps", "1")
		case OptionLowLatency:
			args = append(args, "-flags", "+low_delay")
		}
	}

	if len(fflags) > 0 {
		args = append(args, "-fflags", strings.Join(fflags, ""))
	}

	return args
}
