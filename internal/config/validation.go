package config

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

var sportKeyPattern = regexp.MustCompile(`^[a-z]+_[a-z0-9_]+$`)

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	v.RegisterValidation("environment", validateEnvironment)
	v.RegisterValidation("loglevel", validateLogLevel)
	v.RegisterValidation("sportkeys", validateSportKeys)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	cv := NewValidator()
	return cv.Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	err := cv.validator.Struct(cfg)
	if err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	return validateCrossField(cfg)
}

// validateEnvironment validates the environment field
func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

// validateLogLevel validates the log level field
func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// validateSportKeys validates odds-API sport key syntax, e.g.
// "basketball_nba".
func validateSportKeys(fl validator.FieldLevel) bool {
	keys, ok := fl.Field().Interface().([]string)
	if !ok {
		return false
	}
	for _, key := range keys {
		if !sportKeyPattern.MatchString(key) {
			return false
		}
	}
	return true
}

// validateCrossField applies validations spanning multiple fields
func validateCrossField(cfg *Config) error {
	maxStake := cfg.Strategy.Bankroll * cfg.Strategy.MaxDailyStakePercent
	if maxStake < 1 {
		return fmt.Errorf("bankroll %.2f with max stake percent %.3f caps stakes below one unit",
			cfg.Strategy.Bankroll, cfg.Strategy.MaxDailyStakePercent)
	}
	if cfg.Pipeline.LookbackHours < cfg.Pipeline.LookaheadHours/2 {
		return fmt.Errorf("lookback window (%dh) too short for lookahead (%dh); consensus would miss context",
			cfg.Pipeline.LookbackHours, cfg.Pipeline.LookaheadHours)
	}
	return nil
}

// formatValidationErrors formats validation errors into a readable message
func formatValidationErrors(errs validator.ValidationErrors) error {
	msg := "configuration validation failed:"
	for _, err := range errs {
		msg += fmt.Sprintf("\n  - field '%s' failed rule '%s'", err.Namespace(), err.Tag())
	}
	return fmt.Errorf("%s", msg)
}
