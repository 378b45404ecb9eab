package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// addFlagValidation wraps a flag's value so invalid input fails at parse time
// instead of surfacing later as a config error.
func addFlagValidation(cmd *cobra.Command, flagName string, validator func(string) error) {
	flag := cmd.Flags().Lookup(flagName)
	if flag == nil {
		return
	}

	flag.Value = &validatingValue{
		Value:     flag.Value,
		validator: validator,
	}
}

type validatingValue struct {
	pflag.Value
	validator func(string) error
}

func (v *validatingValue) Set(val string) error {
	if err := v.validator(val); err != nil {
		return err
	}
	return v.Value.Set(val)
}

func validatePortFlag(portStr string) error {
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid port number: %s", portStr)
	}

	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}

	return nil
}

func validateFormatFlag(formats ...string) func(string) error {
	return func(value string) error {
		for _, format := range formats {
			if value == format {
				return nil
			}
		}
		return fmt.Errorf("invalid format %s, must be one of: %s", value, strings.Join(formats, ", "))
	}
}
