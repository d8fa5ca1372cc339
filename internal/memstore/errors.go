package memstore

import "fmt"

// CodeConfig marks an invalid Store construction.
const CodeConfig = "CONFIG_ERROR"

// ConfigError reports bad options or seed data passed to New.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", CodeConfig, e.Message)
}

// Is reports any *ConfigError as a match, so errors.Is(err, ErrConfig) works.
func (e *ConfigError) Is(target error) bool {
	_, ok := target.(*ConfigError)
	return ok
}

// ErrConfig is the sentinel for errors.Is checks.
var ErrConfig = &ConfigError{Message: "invalid store configuration"}

func configError(format string, args ...any) error {
	return &ConfigError{Message: fmt.Sprintf(format, args...)}
}
