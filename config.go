package main

import (
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

var config map[interface{}]interface{}

// LoadConfig loads the configuration file
// A missing file is not an error: every key has a default
func LoadConfig(path string) error {
	config = make(map[interface{}]interface{})

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, &config)
}

// ConfKey returns a key in the configuration
// Nested keys are addressed with colons, e.g. database:backend
func ConfKey(key string) interface{} {
	keys := strings.Split(key, ":")
	c := config
	for i := 0; i < len(keys)-1; i++ {
		sub, ok := c[keys[i]].(map[interface{}]interface{})
		if !ok {
			return nil
		}
		c = sub
	}

	return c[keys[len(keys)-1]]
}
