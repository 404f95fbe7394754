package runtime

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Flow is the parsed workflow file: an ordered list of command declarations.
// Declarations are immutable after load.
type Flow struct {
	Commands []Command `yaml:"commands"`
}

// Command declares one operation: a unique name, a type discriminator, the
// acting user, and the type-specific parameter map. Parameter values may be
// scalars, arrays, or nested objects and may embed $name.field references
// or $(func) host functions.
type Command struct {
	Name       string         `yaml:"name" validate:"required"`
	Type       string         `yaml:"type" validate:"required"`
	User       User           `yaml:"user"`
	Parameters map[string]any `yaml:"parameters"`
}

// User identifies the principal an operation runs as. Group, when set,
// requests a delegation credential scoped to that group. An empty ID means
// the operation is dispatched without a credential.
type User struct {
	ID       string `yaml:"id"`
	Password string `yaml:"password" validate:"required_with=ID"`
	Group    string `yaml:"group,omitempty"`
}

// Specified reports whether the command declares an acting user.
func (u User) Specified() bool {
	return u.ID != ""
}

var flowValidate = validator.New()

// LoadFlow reads and parses a workflow file. Parse failures are returned
// as-is; structural checks happen separately in Flow.Validate so the
// validate CLI command can report them all.
func LoadFlow(path string) (*Flow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading workflow file: %w", err)
	}

	var flow Flow
	if err := yaml.Unmarshal(data, &flow); err != nil {
		return nil, fmt.Errorf("error unmarshalling workflow file: %w", err)
	}

	// Secrets are usually declared as ${VAR} rather than inline.
	for i := range flow.Commands {
		u := &flow.Commands[i].User
		u.ID = resolveEnvVar(u.ID)
		u.Password = resolveEnvVar(u.Password)
	}

	return &flow, nil
}

// envVarPattern matches ${VAR} and ${VAR:default} syntax
var envVarPattern = regexp.MustCompile(`^\$\{([A-Z_][A-Z0-9_]*)(:[^}]*)?\}$`)

// resolveEnvVar resolves environment variable references in user fields.
// An unset variable without a default keeps the literal text; the failure
// then surfaces at login, scoped to the operations that use it.
func resolveEnvVar(value string) string {
	matches := envVarPattern.FindStringSubmatch(value)
	if matches == nil {
		return value
	}
	if env, ok := os.LookupEnv(matches[1]); ok {
		return env
	}
	if matches[2] != "" {
		return strings.TrimPrefix(matches[2], ":")
	}
	return value
}

// Validate performs every structural check that must pass before any
// network call: required fields, unique names, and known operation types.
// Registry may be nil, in which case type membership is not checked.
func (f *Flow) Validate(registry *Registry) []error {
	var errs []error

	if len(f.Commands) == 0 {
		errs = append(errs, &ValidationError{Field: "commands", Message: "file declares no commands"})
		return errs
	}

	seen := make(map[string]int, len(f.Commands))
	for i, c := range f.Commands {
		if err := flowValidate.Struct(c); err != nil {
			if fieldErrs, ok := err.(validator.ValidationErrors); ok {
				for _, fe := range fieldErrs {
					errs = append(errs, &ValidationError{
						Command: c.Name,
						Field:   strings.ToLower(fe.Field()),
						Message: fmt.Sprintf("failed %q check", fe.Tag()),
					})
				}
			} else {
				errs = append(errs, fmt.Errorf("command %d: %w", i, err))
			}
		}

		if c.Name != "" {
			if prev, dup := seen[c.Name]; dup {
				errs = append(errs, &ValidationError{
					Command: c.Name,
					Field:   "name",
					Message: fmt.Sprintf("duplicate of command %d", prev),
				})
			}
			seen[c.Name] = i
		}

		if registry != nil && c.Type != "" {
			exec, ok := registry.Get(c.Type)
			if !ok {
				errs = append(errs, &ValidationError{
					Command: c.Name,
					Field:   "type",
					Message: fmt.Sprintf("unknown operation type %q", c.Type),
				})
				continue
			}
			if err := exec.Validate(c.Parameters); err != nil {
				var ve *ValidationError
				if errors.As(err, &ve) {
					errs = append(errs, &ValidationError{Command: c.Name, Field: ve.Field, Message: ve.Message})
				} else {
					errs = append(errs, fmt.Errorf("command %q: %w", c.Name, err))
				}
			}
		}
	}

	return errs
}
