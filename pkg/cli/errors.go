package cli

import "fmt"

// ConfigError reports a problem with the gateway configuration: a file
// that fails to load or validate, a route table that does not compile,
// a malformed backend target. Configuration errors are fatal; commands
// return them instead of starting a gateway on a broken config.
type ConfigError struct {
	// Field is the configuration section at fault ("routes",
	// "services", "auth"), empty when the whole file failed to load.
	Field string

	// Message describes what is wrong with it.
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("config error: %s", e.Message)
	}
	return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
}

// NewConfigError creates a ConfigError for the given section.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// CommandError wraps a runtime failure from an atlas subcommand, keyed
// by the command name so the top-level error output says which one.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

// Unwrap exposes the underlying failure to errors.Is and errors.As.
func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewCommandError wraps err as a CommandError for the named command.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{Command: command, Err: err}
}
