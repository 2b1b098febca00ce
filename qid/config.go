package main

import (
	"io/ioutil"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Listen string `yaml:"listen"`
	Token  string `yaml:"token"`
	Syslog bool   `yaml:"syslog"`
}

func DefaultConfig() Config {
	return Config{
		Listen: "tcp://localhost:9559",
		Syslog: true,
	}
}

func LoadConfig(path string) (config Config, err error) {
	config = DefaultConfig()
	if path == "" {
		return
	}
	configYaml, err := ioutil.ReadFile(path)
	if err != nil {
		return
	}
	err = yaml.Unmarshal(configYaml, &config)
	return
}
