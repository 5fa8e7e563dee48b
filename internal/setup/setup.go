// Package setup registers the MCP server binary with desktop MCP clients.
package setup

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/health-advisor-server/internal/config"
)

// DefaultServerName is the key the server is registered under
const DefaultServerName = "health-advisor"

// BinaryName is the MCP server executable looked up when no path is given
const BinaryName = "mcp-server"

// ServerEntry is one entry of a client's mcpServers map
type ServerEntry struct {
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// Options controls how the server is registered
type Options struct {
	Name        string // key under mcpServers, DefaultServerName when empty
	BinaryPath  string // looked up with FindBinary when empty
	LibraryPath string // exported as the advice library override when set
	LogLevel    string
}

// Status describes what a client config currently holds for the server
type Status struct {
	ConfigPath string
	Registered bool
	Entry      ServerEntry
	Issues     []string
}

// DesktopConfigPath returns the desktop client's config file for this OS
func DesktopConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return desktopConfigPath(runtime.GOOS, home, os.Getenv)
}

func desktopConfigPath(goos, home string, getenv func(string) string) (string, error) {
	var configDir string

	switch goos {
	case "darwin":
		configDir = filepath.Join(home, "Library", "Application Support", "Claude")
	case "linux":
		if xdg := getenv("XDG_CONFIG_HOME"); xdg != "" {
			configDir = filepath.Join(xdg, "Claude")
		} else {
			configDir = filepath.Join(home, ".config", "Claude")
		}
	case "windows":
		appData := getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		configDir = filepath.Join(appData, "Claude")
	default:
		return "", fmt.Errorf("unsupported operating system: %s", goos)
	}

	return filepath.Join(configDir, "claude_desktop_config.json"), nil
}

// loadDocument reads the client config keeping every top-level key so that
// settings this package does not know about survive a rewrite
func loadDocument(configPath string) (map[string]json.RawMessage, map[string]ServerEntry, error) {
	doc := make(map[string]json.RawMessage)
	servers := make(map[string]ServerEntry)

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return doc, servers, nil
		}
		return nil, nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if raw, ok := doc["mcpServers"]; ok {
		if err := json.Unmarshal(raw, &servers); err != nil {
			return nil, nil, fmt.Errorf("failed to parse mcpServers: %w", err)
		}
	}

	return doc, servers, nil
}

func saveDocument(configPath string, doc map[string]json.RawMessage, servers map[string]ServerEntry) error {
	raw, err := json.Marshal(servers)
	if err != nil {
		return fmt.Errorf("failed to marshal servers: %w", err)
	}
	doc["mcpServers"] = raw

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Register adds or replaces the server entry in the client config at configPath
func Register(configPath string, opts Options) (ServerEntry, error) {
	doc, servers, err := loadDocument(configPath)
	if err != nil {
		return ServerEntry{}, err
	}

	binaryPath := opts.BinaryPath
	if binaryPath == "" {
		binaryPath, err = FindBinary(BinaryName)
		if err != nil {
			return ServerEntry{}, fmt.Errorf("could not find server binary: %w", err)
		}
	}

	entry := ServerEntry{
		Command: binaryPath,
		Env:     make(map[string]string),
	}
	if opts.LibraryPath != "" {
		libraryPath, err := filepath.Abs(opts.LibraryPath)
		if err != nil {
			libraryPath = opts.LibraryPath
		}
		entry.Env[config.EnvPrefix+"_ADVICE_LIBRARY_PATH"] = libraryPath
	}
	if opts.LogLevel != "" {
		entry.Env[config.EnvPrefix+"_LOGGING_LEVEL"] = opts.LogLevel
	}

	servers[serverName(opts.Name)] = entry
	if err := saveDocument(configPath, doc, servers); err != nil {
		return ServerEntry{}, err
	}

	return entry, nil
}

// Unregister removes the server entry; a missing entry is not an error
func Unregister(configPath, name string) error {
	doc, servers, err := loadDocument(configPath)
	if err != nil {
		return err
	}
	if _, ok := servers[serverName(name)]; !ok {
		return nil
	}

	delete(servers, serverName(name))
	return saveDocument(configPath, doc, servers)
}

// GetStatus reports whether the server is registered and whether its binary
// and library are still where the entry says
func GetStatus(configPath, name string) (*Status, error) {
	status := &Status{ConfigPath: configPath, Issues: []string{}}

	_, servers, err := loadDocument(configPath)
	if err != nil {
		return nil, err
	}

	entry, ok := servers[serverName(name)]
	if !ok {
		status.Issues = append(status.Issues, fmt.Sprintf("%s is not registered", serverName(name)))
		return status, nil
	}
	status.Registered = true
	status.Entry = entry

	if info, err := os.Stat(entry.Command); err != nil {
		status.Issues = append(status.Issues, fmt.Sprintf("Server binary not found: %s", entry.Command))
	} else if info.Mode()&0o111 == 0 {
		status.Issues = append(status.Issues, fmt.Sprintf("Server binary is not executable: %s", entry.Command))
	}

	if lib, ok := entry.Env[config.EnvPrefix+"_ADVICE_LIBRARY_PATH"]; ok {
		if _, err := os.Stat(lib); err != nil {
			status.Issues = append(status.Issues, fmt.Sprintf("Advice library not found: %s", lib))
		}
	}

	return status, nil
}

// RegisteredNames lists every server the client config knows, sorted
func RegisteredNames(configPath string) ([]string, error) {
	_, servers, err := loadDocument(configPath)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(servers))
	for name := range servers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// FindBinary looks for the executable on PATH, then in common build locations
func FindBinary(binaryName string) (string, error) {
	if path, err := exec.LookPath(binaryName); err == nil {
		return path, nil
	}

	home, _ := os.UserHomeDir()
	locations := []string{
		"./" + binaryName,
		"./bin/" + binaryName,
		"./build/" + binaryName,
		filepath.Join(home, ".local", "bin", binaryName),
		"/usr/local/bin/" + binaryName,
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			absPath, err := filepath.Abs(loc)
			if err != nil {
				return loc, nil
			}
			return absPath, nil
		}
	}

	return "", fmt.Errorf("binary '%s' not found in common locations", binaryName)
}

func serverName(name string) string {
	if name == "" {
		return DefaultServerName
	}
	return name
}
