package mcpserver

import (
	"errors"
	"fmt"

	"github.com/skosovsky/promptreg"
	"github.com/skosovsky/promptreg/internal/cast"
)

// errInvalidArgument marks tool argument errors; they are reported as tool error results.
var errInvalidArgument = errors.New("invalid argument")

func requireString(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("%w: %q is required", errInvalidArgument, key)
	}
	s, ok := cast.ToString(v)
	if !ok {
		return "", fmt.Errorf("%w: %q must be a string", errInvalidArgument, key)
	}
	return s, nil
}

func requireID(args map[string]any) (string, error) {
	id, err := requireString(args, "id")
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", fmt.Errorf("%w: %q must not be empty", errInvalidArgument, "id")
	}
	return id, nil
}

// optionalString returns nil when key is absent or null.
func optionalString(args map[string]any, key string) (*string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, nil
	}
	s, ok := cast.ToString(v)
	if !ok {
		return nil, fmt.Errorf("%w: %q must be a string", errInvalidArgument, key)
	}
	return &s, nil
}

func optionalStrings(args map[string]any, key string) ([]string, bool, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, false, nil
	}
	ss, ok := cast.ToStringSlice(v)
	if !ok {
		return nil, false, fmt.Errorf("%w: %q must be an array of strings", errInvalidArgument, key)
	}
	return ss, true, nil
}

func optionalObject(args map[string]any, key string) (map[string]any, bool, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, false, nil
	}
	m, ok := cast.ToMap(v)
	if !ok {
		return nil, false, fmt.Errorf("%w: %q must be an object", errInvalidArgument, key)
	}
	return m, true, nil
}

func optionalVariables(args map[string]any) (map[string]promptreg.Variable, bool, error) {
	raw, ok, err := optionalObject(args, "variables")
	if err != nil || !ok {
		return nil, ok, err
	}
	out := make(map[string]promptreg.Variable, len(raw))
	for name, v := range raw {
		def, ok := cast.ToMap(v)
		if !ok {
			return nil, false, fmt.Errorf("%w: variable %q must be an object", errInvalidArgument, name)
		}
		var variable promptreg.Variable
		if d, present := def["description"]; present && d != nil {
			s, ok := cast.ToString(d)
			if !ok {
				return nil, false, fmt.Errorf("%w: variable %q description must be a string", errInvalidArgument, name)
			}
			variable.Description = s
		}
		if r, present := def["required"]; present && r != nil {
			b, ok := cast.ToBool(r)
			if !ok {
				return nil, false, fmt.Errorf("%w: variable %q required must be a boolean", errInvalidArgument, name)
			}
			variable.Required = &b
		}
		out[name] = variable
	}
	return out, true, nil
}

// promptFromArgs builds a new prompt from add_prompt arguments.
func promptFromArgs(args map[string]any) (*promptreg.Prompt, error) {
	id, err := requireID(args)
	if err != nil {
		return nil, err
	}
	content, err := requireString(args, "content")
	if err != nil {
		return nil, err
	}
	u, err := updateFromArgs(args)
	if err != nil {
		return nil, err
	}
	p := (&promptreg.Prompt{ID: id, Content: content}).Patch(u)
	return p, nil
}

// updateFromArgs collects the optional fields shared by add_prompt and update_prompt.
func updateFromArgs(args map[string]any) (promptreg.Update, error) {
	var u promptreg.Update
	var err error
	if u.Content, err = optionalString(args, "content"); err != nil {
		return u, err
	}
	if u.Description, err = optionalString(args, "description"); err != nil {
		return u, err
	}
	if u.Tags, u.SetTags, err = optionalStrings(args, "tags"); err != nil {
		return u, err
	}
	if u.Variables, u.SetVariables, err = optionalVariables(args); err != nil {
		return u, err
	}
	if u.Metadata, u.SetMetadata, err = optionalObject(args, "metadata"); err != nil {
		return u, err
	}
	return u, nil
}
