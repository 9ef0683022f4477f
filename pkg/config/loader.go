package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var placeholderRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// LoadConfig merges base.yaml, <env>.yaml and secrets.env from configDir.
// ${VAR} placeholders resolve from secrets.env first, then the process
// environment; anything still unresolved becomes "".
func LoadConfig(env string, configDir string) (map[string]interface{}, error) {
	if configDir == "" {
		configDir = "config"
	}

	merged, err := loadYAMLFile(filepath.Join(configDir, "base.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to load base.yaml: %w", err)
	}

	if env != "" && env != "base" {
		overlay, err := loadOptional(filepath.Join(configDir, env+".yaml"), loadYAMLFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s.yaml: %w", env, err)
		}
		merged = mergeMaps(merged, overlay)
	}

	secrets, err := loadOptional(filepath.Join(configDir, "secrets.env"), loadEnvFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load secrets.env: %w", err)
	}

	return substituteEnvVars(merged, func(key string) string {
		if v, ok := secrets[key]; ok {
			return v
		}
		return os.Getenv(key)
	}), nil
}

// loadOptional returns an empty result when path does not exist.
func loadOptional[V any](path string, load func(string) (map[string]V, error)) (map[string]V, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return map[string]V{}, nil
	}
	return load(path)
}

func loadYAMLFile(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := make(map[string]interface{})
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}
	return config, nil
}

// loadEnvFile reads KEY=VALUE lines, ignoring blanks and # comments.
func loadEnvFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	env := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		env[strings.TrimSpace(key)] = value
	}
	return env, nil
}

// mergeMaps returns dst overlaid with src, merging nested maps.
func mergeMaps(dst, src map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(dst)+len(src))
	for k, v := range dst {
		result[k] = v
	}
	for k, v := range src {
		dstMap, dstOK := result[k].(map[string]interface{})
		srcMap, srcOK := v.(map[string]interface{})
		if dstOK && srcOK {
			result[k] = mergeMaps(dstMap, srcMap)
			continue
		}
		result[k] = v
	}
	return result
}

// substituteEnvVars replaces ${VAR} placeholders in every string value,
// including nested sections.
func substituteEnvVars(config map[string]interface{}, lookup func(string) string) map[string]interface{} {
	result := make(map[string]interface{}, len(config))
	for k, v := range config {
		switch val := v.(type) {
		case string:
			result[k] = placeholderRe.ReplaceAllStringFunc(val, func(m string) string {
				return lookup(placeholderRe.FindStringSubmatch(m)[1])
			})
		case map[string]interface{}:
			result[k] = substituteEnvVars(val, lookup)
		default:
			result[k] = v
		}
	}
	return result
}

// GetEnv returns the variable or defaultValue when unset.
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetConfigEnv returns CONFIG_ENV, defaulting to local.
func GetConfigEnv() string {
	return GetEnv("CONFIG_ENV", "local")
}
