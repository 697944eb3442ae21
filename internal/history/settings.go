package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"captioner/internal/config"
	"captioner/internal/services"
)

// SettingsKey is the storage key of the transcription settings.
const SettingsKey = "aiSubtitlesSettings"

// Settings are the user-editable transcription preferences.
type Settings struct {
	APIEndpoint  string `json:"apiEndpoint" validate:"required,url"`
	OutputFormat string `json:"outputFormat" validate:"required,oneof=srt xml"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the settings values.
func (s Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			parts := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				parts = append(parts, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
			}
			return services.Wrap(services.ErrValidation, "settings", "validate", strings.Join(parts, "; "), nil)
		}
		return services.Wrap(services.ErrValidation, "settings", "validate", "", err)
	}
	return nil
}

// Apply overlays the settings onto cfg's transcription section. Fields set
// through an environment override keep the environment value.
func (s Settings) Apply(cfg *config.Config) {
	if s.APIEndpoint != "" && !config.EnvSet(config.EnvAPIEndpoint) {
		cfg.Transcription.APIEndpoint = s.APIEndpoint
	}
	if s.OutputFormat != "" && !config.EnvSet(config.EnvOutputFormat) {
		cfg.Transcription.OutputFormat = s.OutputFormat
	}
}

// SettingsFromConfig returns the settings implied by cfg.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{APIEndpoint: cfg.Transcription.APIEndpoint, OutputFormat: cfg.Transcription.OutputFormat}
}

// LoadSettings reads the persisted settings. The boolean is false when none
// have been saved.
func (s *Store) LoadSettings(ctx context.Context) (Settings, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, SettingsKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return Settings{}, false, nil
	}
	if err != nil {
		return Settings{}, false, fmt.Errorf("query settings: %w", err)
	}
	var settings Settings
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		return Settings{}, false, fmt.Errorf("decode settings: %w", err)
	}
	return settings, true, nil
}

// SaveSettings validates and persists settings.
func (s *Store) SaveSettings(ctx context.Context, settings Settings) error {
	settings.APIEndpoint = strings.TrimRight(strings.TrimSpace(settings.APIEndpoint), "/")
	settings.OutputFormat = strings.ToLower(strings.TrimSpace(settings.OutputFormat))
	if err := settings.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
         ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		SettingsKey, string(data), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
