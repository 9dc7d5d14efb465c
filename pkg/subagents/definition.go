// Package subagents implements the delegation side of a deep agent: named
// sub-agent definitions, the registry the task tool validates against, and
// lazily built sub-runtimes that execute against the caller's shared state.
package subagents

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// GeneralPurposeName is the sub-agent type every manager registers.
const GeneralPurposeName = "general-purpose"

const generalPurposeDescription = "General-purpose agent for researching complex questions, searching for files and content, and executing multi-step tasks. When you are searching for a keyword or file and are not confident that you will find the right match in the first few tries use this agent to perform the search for you. (Tools: *)"

var nameRegexp = regexp.MustCompile(`^[a-z0-9-]+$`)

// Definition declares one sub-agent type. Definitions are static
// configuration: register them at construction time and never mutate them.
type Definition struct {
	Name        string
	Description string

	// Prompt is the sub-agent's full instruction text. The general-purpose
	// entry ignores it and inherits the parent's instructions instead.
	Prompt string

	// Tools restricts the sub-agent to a subset of the parent's registry,
	// by tool name. Empty means the full set.
	Tools []string
}

func generalPurposeDefinition() Definition {
	return Definition{
		Name:        GeneralPurposeName,
		Description: generalPurposeDescription,
	}
}

func validateDefinition(def Definition) error {
	name := strings.TrimSpace(def.Name)
	if name == "" {
		return errors.New("subagents: definition name is required")
	}
	if !nameRegexp.MatchString(name) {
		return fmt.Errorf("subagents: invalid definition name %q", def.Name)
	}
	if strings.TrimSpace(def.Description) == "" {
		return fmt.Errorf("subagents: definition %s: description is required", name)
	}
	return nil
}
