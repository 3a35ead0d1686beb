package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	LLM     LLMConfig     `yaml:"llm"`
	Copilot CopilotConfig `yaml:"copilot"`
	Proxy   ProxyConfig   `yaml:"proxy"`
	LogFile string        `yaml:"log_file"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type LLMConfig struct {
	Backend     string  `yaml:"backend"` // gemini | ollama | openai | none
	Model       string  `yaml:"model"`
	OllamaHost  string  `yaml:"ollama_host"`
	Temperature float64 `yaml:"temperature"`
}

type CopilotConfig struct {
	SkillsDir        string  `yaml:"skills_dir"`
	MaxIterations    int     `yaml:"max_iterations"`
	QualityThreshold float64 `yaml:"quality_threshold"`
	WatchSkills      bool    `yaml:"watch_skills"`
}

type ProxyConfig struct {
	HandleTTL  time.Duration `yaml:"handle_ttl"`
	MaxHandles int           `yaml:"max_handles"`
}

// Load reads a YAML config file and applies defaults plus env overrides.
// A missing file is not an error: defaults still make a runnable server.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.fillDefaults()
	return cfg, nil
}

func Default() *Config {
	return &Config{
		Server:  ServerConfig{Addr: ":8600"},
		LLM:     LLMConfig{Backend: "gemini", Temperature: 0.2},
		Copilot: CopilotConfig{SkillsDir: "skills", MaxIterations: 3, QualityThreshold: 0.7},
		Proxy:   ProxyConfig{HandleTTL: 15 * time.Minute, MaxHandles: 100},
		LogFile: "copilot.log",
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("COPILOT_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("COPILOT_LLM_BACKEND"); v != "" {
		c.LLM.Backend = v
	}
	if v := os.Getenv("COPILOT_LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("OLLAMA_HOST"); v != "" && c.LLM.OllamaHost == "" {
		c.LLM.OllamaHost = v
	}
	if v := os.Getenv("COPILOT_SKILLS_DIR"); v != "" {
		c.Copilot.SkillsDir = v
	}
}

func (c *Config) fillDefaults() {
	d := Default()
	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
	if c.Copilot.MaxIterations <= 0 {
		c.Copilot.MaxIterations = d.Copilot.MaxIterations
	}
	if c.Copilot.QualityThreshold <= 0 {
		c.Copilot.QualityThreshold = d.Copilot.QualityThreshold
	}
	if c.Copilot.SkillsDir == "" {
		c.Copilot.SkillsDir = d.Copilot.SkillsDir
	}
	if c.Proxy.HandleTTL <= 0 {
		c.Proxy.HandleTTL = d.Proxy.HandleTTL
	}
	if c.Proxy.MaxHandles <= 0 {
		c.Proxy.MaxHandles = d.Proxy.MaxHandles
	}
	if c.LogFile == "" {
		c.LogFile = d.LogFile
	}
}
