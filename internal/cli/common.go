package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/xyproto/env/v2"
)

// Version information for all CLI tools
const (
	Version   = "0.2.0"
	BuildDate = "2025-09-30"
	CommitSHA = "unknown" // Will be set during build
)

// VersionInfo contains version and build information
type VersionInfo struct {
	Version   string `json:"version"`
	BuildDate string `json:"build_date"`
	CommitSHA string `json:"commit_sha"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	Arch      string `json:"arch"`
}

// GetVersionInfo returns structured version information
func GetVersionInfo() *VersionInfo {
	return &VersionInfo{
		Version:   Version,
		BuildDate: BuildDate,
		CommitSHA: CommitSHA,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// PrintVersion prints version information in a consistent format
func PrintVersion(w io.Writer, toolName string, jsonOutput bool) {
	info := GetVersionInfo()

	if jsonOutput {
		data, err := json.MarshalIndent(map[string]interface{}{
			"tool":         toolName,
			"version_info": info,
		}, "", "  ")
		if err == nil {
			fmt.Fprintln(w, string(data))
			return
		}
		// Fallback to plain text if JSON marshaling fails
		fmt.Fprintf(os.Stderr, "Error: Failed to marshal version info to JSON: %v\n", err)
	}

	fmt.Fprintf(w, "%s v%s\n", toolName, info.Version)
	fmt.Fprintf(w, "Build Date: %s\n", info.BuildDate)
	if info.CommitSHA != "unknown" && info.CommitSHA != "" {
		fmt.Fprintf(w, "Commit: %s\n", info.CommitSHA)
	}
	fmt.Fprintf(w, "Go Version: %s\n", info.GoVersion)
	fmt.Fprintf(w, "Platform: %s/%s\n", info.Platform, info.Arch)
}

// ExitWithError prints an error message and exits with code 1
func ExitWithError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

// Logger provides structured logging for CLI tools and passes
type Logger struct {
	Verbose   bool
	DebugMode bool
	Out       io.Writer
}

// NewLogger creates a new logger instance writing to stdout
func NewLogger(verbose, debug bool) *Logger {
	return &Logger{
		Verbose:   verbose,
		DebugMode: debug,
		Out:       os.Stdout,
	}
}

func (l *Logger) emit(level, format string, args ...interface{}) {
	out := l.Out
	if out == nil {
		out = os.Stdout
	}
	fmt.Fprintf(out, "[%s] %s: %s\n", level, time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	if l != nil && l.Verbose {
		l.emit("INFO", format, args...)
	}
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	if l != nil && l.DebugMode {
		l.emit("DEBUG", format, args...)
	}
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	if l != nil {
		l.emit("WARN", format, args...)
	}
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	if l != nil {
		l.emit("ERROR", format, args...)
	}
}

// Environment variables consulted by LoadConfig
const (
	EnvIRHome  = "ORIZON_IR_HOME"
	EnvVerbose = "ORIZON_IR_VERBOSE"
	EnvDebug   = "ORIZON_IR_DEBUG"
)

// Config represents common configuration for CLI tools
type Config struct {
	Verbose       bool   `json:"verbose"`
	Debug         bool   `json:"debug"`
	ConfigFile    string `json:"config_file"`
	WorkDir       string `json:"work_dir"`
	IRHome        string `json:"ir_home"`
	MaxIterations int    `json:"max_iterations"`
}

// LoadConfig loads configuration from file, then applies environment overrides
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{
		WorkDir:    ".",
		ConfigFile: configPath,
	}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err == nil {
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	config.applyEnv()
	return config, nil
}

func (c *Config) applyEnv() {
	c.IRHome = env.Str(EnvIRHome, c.IRHome)
	if env.Has(EnvVerbose) {
		c.Verbose = env.Bool(EnvVerbose)
	}
	if env.Has(EnvDebug) {
		c.Debug = env.Bool(EnvDebug)
	}
}

// SaveConfig saves configuration to file
func (c *Config) SaveConfig(configPath string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Logger builds the logger described by the configuration
func (c *Config) Logger() *Logger { return NewLogger(c.Verbose, c.Debug) }

// CommandInfo represents information about a CLI command
type CommandInfo struct {
	Name        string
	Usage       string
	Description string
	Examples    []string
}

// PrintUsage prints a standardized usage message
func PrintUsage(w io.Writer, tool string, commands []CommandInfo) {
	fmt.Fprintf(w, "%s - Orizon IR Tools\n\n", tool)
	fmt.Fprintf(w, "USAGE:\n")
	fmt.Fprintf(w, "    %s <command> [OPTIONS]\n\n", tool)

	if len(commands) > 0 {
		fmt.Fprintf(w, "COMMANDS:\n")
		for _, cmd := range commands {
			fmt.Fprintf(w, "    %-12s %s\n", cmd.Name, cmd.Description)
		}
		fmt.Fprintf(w, "\n")
	}

	fmt.Fprintf(w, "Use '%s <command> -h' for more information about a command.\n", tool)
}

// ValidateArgs validates command line arguments
func ValidateArgs(args []string, minArgs int, usage string) error {
	if len(args) < minArgs {
		return fmt.Errorf("insufficient arguments\nUsage: %s", usage)
	}
	return nil
}

// HandleError handles errors in a consistent way
func HandleError(err error, logger *Logger) {
	if err != nil {
		if logger != nil {
			logger.Error("%v", err)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
