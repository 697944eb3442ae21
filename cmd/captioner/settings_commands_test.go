package main

import (
	"encoding/json"
	"errors"
	"testing"

	"captioner/internal/config"
	"captioner/internal/devserver"
	"captioner/internal/services"
)

func TestSettingsSetPersistsAndOverridesConfig(t *testing.T) {
	env := setupCLITestEnv(t, devserver.Options{})

	out, _, err := runCLI(t, []string{"--json", "settings", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("settings show: %v", err)
	}
	var view settingsView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode settings: %v", err)
	}
	if view.Persisted || view.APIEndpoint != env.endpoint || view.OutputFormat != "srt" {
		t.Fatalf("unexpected initial settings %+v", view)
	}

	out, _, err = runCLI(t, []string{"settings", "set", "--format", "XML"}, env.configPath)
	if err != nil {
		t.Fatalf("settings set: %v", err)
	}
	requireContains(t, out, "format xml")

	out, _, err = runCLI(t, []string{"--json", "settings", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("settings show: %v", err)
	}
	view = settingsView{}
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode settings: %v", err)
	}
	if !view.Persisted || view.OutputFormat != "xml" || view.APIEndpoint != env.endpoint {
		t.Fatalf("unexpected saved settings %+v", view)
	}

	out, _, err = runCLI(t, []string{"--json", "generate"}, env.configPath)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	var run runView
	if err := json.Unmarshal([]byte(out), &run); err != nil {
		t.Fatalf("decode run: %v", err)
	}
	if run.Format != "xml" {
		t.Fatalf("expected persisted xml format, got %q", run.Format)
	}
}

func TestEnvironmentEndpointOverridesPersistedSettings(t *testing.T) {
	env := setupCLITestEnv(t, devserver.Options{})

	if _, _, err := runCLI(t, []string{"settings", "set", "--endpoint", "http://127.0.0.1:1"}, env.configPath); err != nil {
		t.Fatalf("settings set: %v", err)
	}
	t.Setenv(config.EnvAPIEndpoint, env.endpoint)

	out, _, err := runCLI(t, []string{"--json", "settings", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("settings show: %v", err)
	}
	var view settingsView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode settings: %v", err)
	}
	if !view.Persisted || view.APIEndpoint != env.endpoint {
		t.Fatalf("expected environment endpoint over saved one, got %+v", view)
	}

	if _, _, err := runCLI(t, []string{"--json", "generate"}, env.configPath); err != nil {
		t.Fatalf("generate against environment endpoint: %v", err)
	}
}

func TestSettingsSetRejectsInvalidValues(t *testing.T) {
	env := setupCLITestEnv(t, devserver.Options{})

	_, _, err := runCLI(t, []string{"settings", "set", "--endpoint", "not a url"}, env.configPath)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	_, _, err = runCLI(t, []string{"settings", "set", "--format", "vtt"}, env.configPath)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, _, err := runCLI(t, []string{"settings", "set"}, env.configPath); err == nil {
		t.Fatal("expected an error when no flags are given")
	}
}
