package config

import (
	"os"

	"github.com/go-yaml/yaml"
)

type Config struct {
	Server Server `yaml:"server"`
	Vendor Vendor `yaml:"vendor"`
}

type Server struct {
	Listen         string `yaml:"listen"`
	PostgresDsn    string `yaml:"postgresDsn"`
	RedisAddr      string `yaml:"redisAddr"`
	RedisDB        int    `yaml:"redisDB"`
	MemcachedAddr  string `yaml:"memcachedAddr"`
	HistoryBackend string `yaml:"historyBackend"` // memory, postgres
	EnableTrace    bool   `yaml:"enableTrace"`
	TraceEndpoint  string `yaml:"traceEndpoint"`
}

type Vendor struct {
	BaseURL string `yaml:"baseURL"`
}

func Load(path string) (Config, error) {

	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return Config{}, err
	}

	if config.Server.Listen == "" {
		config.Server.Listen = ":8000"
	}
	if config.Server.HistoryBackend == "" {
		config.Server.HistoryBackend = "memory"
	}

	return config, nil
}
