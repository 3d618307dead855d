package main

import (
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestSpecYAML(t *testing.T) {
	spec := map[string]any{
		"openapi": "3.1.0",
		"info":    map[string]any{"title": "plat-heatmap API", "version": "1.0.0"},
		"tags":    []string{"maps", "heatmaps"},
	}
	out, err := specYAML(spec)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(out), "{") {
		t.Errorf("flow style left in output:\n%s", out)
	}

	var back map[string]any
	if err := yaml.Unmarshal(out, &back); err != nil {
		t.Fatal(err)
	}
	if back["openapi"] != "3.1.0" {
		t.Errorf("openapi=%v", back["openapi"])
	}
}

func TestNewLogger(t *testing.T) {
	log := newLogger(&Options{LogLevel: "debug", LogFormat: "json"})
	if !log.Handler().Enabled(t.Context(), -4) {
		t.Error("debug level not enabled")
	}
	log = newLogger(&Options{LogLevel: "bogus"})
	if log.Handler().Enabled(t.Context(), -4) {
		t.Error("invalid level should fall back to info")
	}
}
