package config

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// LoadServices reads raw service definitions from a YAML file:
//
//	services:
//	  - id: mailer
//	    class: app.SMTPMailer
//	    params: { host: "param(mail.host)" }
//	    alias: mail
//
// The services key may also be a map of id to definition.
func LoadServices(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading services file: %w", err)
	}
	defs, err := ParseServices(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return defs, nil
}

// ParseServices decodes a YAML services document. Setters given as a
// mapping keep their declaration order.
func ParseServices(data []byte) ([]map[string]any, error) {
	var doc struct {
		Services yaml.Node `yaml:"services"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("config: parsing services: %w", err)
	}

	node := &doc.Services
	if node.Kind == 0 {
		return nil, nil
	}
	switch node.Kind {
	case yaml.SequenceNode:
		for _, def := range node.Content {
			orderSetters(def)
		}
	case yaml.MappingNode:
		for i := 1; i < len(node.Content); i += 2 {
			orderSetters(node.Content[i])
		}
	}
	var services any
	if err := node.Decode(&services); err != nil {
		return nil, fmt.Errorf("config: parsing services: %w", err)
	}

	switch s := services.(type) {
	case nil:
		return nil, nil
	case []any:
		defs := make([]map[string]any, 0, len(s))
		for i, entry := range s {
			def, ok := entry.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("config: service #%d must be a mapping, got %T", i, entry)
			}
			defs = append(defs, def)
		}
		return defs, nil
	case map[string]any:
		ids := make([]string, 0, len(s))
		for id := range s {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		defs := make([]map[string]any, 0, len(ids))
		for _, id := range ids {
			def := map[string]any{}
			switch entry := s[id].(type) {
			case nil:
			case map[string]any:
				def = entry
			default:
				return nil, fmt.Errorf("config: service %q must be a mapping, got %T", id, entry)
			}
			if _, ok := def["id"]; !ok {
				def["id"] = id
			}
			defs = append(defs, def)
		}
		return defs, nil
	}
	return nil, fmt.Errorf("config: services must be a list or a mapping, got %T", services)
}

// orderSetters rewrites the `setters` mapping of a definition into a list
// of single-key mappings, which the container calls in order.
func orderSetters(def *yaml.Node) {
	if def.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(def.Content); i += 2 {
		key, value := def.Content[i], def.Content[i+1]
		if key.Value != "setters" || value.Kind != yaml.MappingNode {
			continue
		}
		list := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Line: value.Line, Column: value.Column}
		for j := 0; j+1 < len(value.Content); j += 2 {
			list.Content = append(list.Content, &yaml.Node{
				Kind:    yaml.MappingNode,
				Tag:     "!!map",
				Content: []*yaml.Node{value.Content[j], value.Content[j+1]},
			})
		}
		def.Content[i+1] = list
	}
}
