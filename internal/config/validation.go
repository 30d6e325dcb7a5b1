package config

import "fmt"

// ValidateConfig validates the complete tool configuration structure.
func ValidateConfig(cfg *Config) error {
	validator := newConfigurationValidator(cfg)
	return validator.validate()
}

// configurationValidator coordinates validation across configuration domains.
type configurationValidator struct {
	config *Config
}

func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

func (cv *configurationValidator) validate() error {
	if err := cv.validateCache(); err != nil {
		return err
	}
	if err := cv.validateAudit(); err != nil {
		return err
	}
	if err := cv.validateMetrics(); err != nil {
		return err
	}
	if err := cv.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (cv *configurationValidator) validateCache() error {
	if cv.config.Cache.Enabled && cv.config.Cache.Path == "" {
		return fmt.Errorf("cache.path must be set when cache.enabled is true")
	}
	return nil
}

func (cv *configurationValidator) validateAudit() error {
	if cv.config.Audit.MaxErrors < 0 {
		return fmt.Errorf("audit.max_errors cannot be negative: %d", cv.config.Audit.MaxErrors)
	}
	return nil
}

func (cv *configurationValidator) validateMetrics() error {
	if cv.config.Metrics.Enabled && cv.config.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr must be set when metrics.enabled is true")
	}
	return nil
}

func (cv *configurationValidator) validateLogging() error {
	switch cv.config.Logging.Level {
	case "debug", "info", "warn", "error", "":
	default:
		return fmt.Errorf("invalid logging.level: %s (allowed: debug|info|warn|error)", cv.config.Logging.Level)
	}
	switch cv.config.Logging.Format {
	case "text", "json", "":
	default:
		return fmt.Errorf("invalid logging.format: %s (allowed: text|json)", cv.config.Logging.Format)
	}
	return nil
}
