package environment

import (
	"fmt"
	"strings"
)

// Environment names the deployment stage the client runs in.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Parse maps common spellings ("prod", "stage", "dev", "local") onto an
// Environment. An empty string is Production.
func Parse(s string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dev", "local", string(Development):
		return Development, nil
	case "stage", string(Staging):
		return Staging, nil
	case "", "prod", string(Production):
		return Production, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEnvironment, s)
	}
}

// UnmarshalText lets Environment be used directly in env-tagged config structs.
func (e *Environment) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

func (e Environment) String() string {
	if e == "" {
		return string(Production)
	}
	return string(e)
}

// AllowsDevFeatures reports whether development-only conveniences, such as
// persisting refresh secrets to disk, may be enabled. Only an explicit
// Development does.
func (e Environment) AllowsDevFeatures() bool {
	return e == Development
}
