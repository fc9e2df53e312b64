package promptreg

import (
	"maps"
	"slices"
)

// Variable describes one substitution variable of a prompt.
// Required is tri-state on disk: absent means required, only an explicit false makes it optional.
type Variable struct {
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Required    *bool  `json:"required,omitempty" yaml:"required,omitempty"`
}

// IsRequired reports whether callers must supply a value for the variable.
func (v Variable) IsRequired() bool {
	return v.Required == nil || *v.Required
}

// Optional returns a pointer to false for use in Variable.Required.
func Optional() *bool {
	f := false
	return &f
}

// Prompt is a stored prompt template. The JSON layout is the on-disk format.
type Prompt struct {
	ID          string              `json:"id"`
	Description string              `json:"description,omitempty"`
	Content     string              `json:"content"`
	Tags        []string            `json:"tags"`
	Variables   map[string]Variable `json:"variables"`
	Metadata    map[string]any      `json:"metadata"`
}

// Summary is the listing shape of a prompt.
type Summary struct {
	ID          string   `json:"id"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags"`
}

// Update carries replacement values for Patch. Nil fields keep the existing value.
type Update struct {
	Content     *string
	Description *string
	Tags        []string
	Variables   map[string]Variable
	Metadata    map[string]any
	// Set flags distinguish "replace with empty" from "keep" for the collection fields.
	SetTags      bool
	SetVariables bool
	SetMetadata  bool
}

// Normalize replaces nil collections with empty ones so the document always
// serializes tags as an array and variables/metadata as objects.
func (p *Prompt) Normalize() {
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.Variables == nil {
		p.Variables = map[string]Variable{}
	}
	if p.Metadata == nil {
		p.Metadata = map[string]any{}
	}
}

// Clone returns a copy with cloned slice and map fields.
// Metadata values are copied shallowly.
func (p *Prompt) Clone() *Prompt {
	if p == nil {
		return nil
	}
	out := *p
	out.Tags = slices.Clone(p.Tags)
	if p.Variables != nil {
		out.Variables = make(map[string]Variable, len(p.Variables))
		for name, v := range p.Variables {
			if v.Required != nil {
				req := *v.Required
				v.Required = &req
			}
			out.Variables[name] = v
		}
	}
	if p.Metadata != nil {
		out.Metadata = maps.Clone(p.Metadata)
	}
	return &out
}

// HasTags reports whether the prompt carries every given tag.
func (p *Prompt) HasTags(tags ...string) bool {
	for _, tag := range tags {
		if !slices.Contains(p.Tags, tag) {
			return false
		}
	}
	return true
}

// Summary returns the listing shape of the prompt.
func (p *Prompt) Summary() Summary {
	tags := slices.Clone(p.Tags)
	if tags == nil {
		tags = []string{}
	}
	return Summary{ID: p.ID, Description: p.Description, Tags: tags}
}

// RequiredVariables returns the sorted names of required variables.
func (p *Prompt) RequiredVariables() []string {
	var out []string
	for name, v := range p.Variables {
		if v.IsRequired() {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}

// Patch returns a copy of p with the fields present in u replaced. The id never changes.
func (p *Prompt) Patch(u Update) *Prompt {
	out := p.Clone()
	if u.Content != nil {
		out.Content = *u.Content
	}
	if u.Description != nil {
		out.Description = *u.Description
	}
	if u.SetTags || u.Tags != nil {
		out.Tags = slices.Clone(u.Tags)
	}
	if u.SetVariables || u.Variables != nil {
		out.Variables = maps.Clone(u.Variables)
	}
	if u.SetMetadata || u.Metadata != nil {
		out.Metadata = maps.Clone(u.Metadata)
	}
	out.Normalize()
	return out
}
