package agent

import (
	"regexp"

	"github.com/hupe1980/agenthive/core"
)

const (
	maxNameLength   = 64
	maxPromptTokens = 4000

	// DefaultMaxSteps is the loop budget applied when a definition omits one.
	DefaultMaxSteps = 10
	// AbsoluteMaxSteps caps the loop budget regardless of what was requested.
	AbsoluteMaxSteps = 25
)

var namePattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// ConfigOptions holds the optional fields of an agent configuration.
type ConfigOptions struct {
	// Capabilities lists tool names available to the specialist. The
	// delegation tool itself is silently excluded.
	Capabilities []string
	// Model overrides the runner's default model for this agent.
	Model string
	// MaxSteps bounds the agent loop. Zero means DefaultMaxSteps; any other
	// value is clamped to [1, AbsoluteMaxSteps].
	MaxSteps int
}

// Config is the immutable configuration of a specialist agent. Instances are
// created through NewConfig, which validates the name and instructions, so a
// *Config in hand is always well-formed. Configs are safe to share across
// goroutines.
type Config struct {
	name         string
	description  string
	instructions string
	capabilities []string
	model        string
	maxSteps     int
}

// NewConfig validates and builds an agent configuration.
//
// The name must match [a-z0-9_-]+ and be at most 64 characters. The
// instructions become the specialist's system prompt and may not exceed
// 4000 estimated tokens. Validation failures return coded errors
// (INVALID_AGENT_NAME, PROMPT_TOO_LARGE) suitable for surfacing to the
// orchestrating model.
func NewConfig(name, description, instructions string, optFns ...func(o *ConfigOptions)) (*Config, error) {
	opts := ConfigOptions{MaxSteps: DefaultMaxSteps}

	for _, fn := range optFns {
		fn(&opts)
	}

	if err := validateName(name); err != nil {
		return nil, err
	}

	if tokens := core.EstimateTokens(instructions); tokens > maxPromptTokens {
		return nil, core.NewError(core.CodePromptTooLarge, "System prompt is ~%d tokens, max is %d.", tokens, maxPromptTokens)
	}

	maxSteps := opts.MaxSteps
	if maxSteps == 0 {
		maxSteps = DefaultMaxSteps
	}
	maxSteps = clampSteps(maxSteps)

	capabilities := make([]string, 0, len(opts.Capabilities))
	for _, c := range opts.Capabilities {
		// Specialists never delegate further; a runaway tree of subagents
		// spawning subagents would bypass the concurrency ceiling.
		if c == core.DelegateToolName {
			continue
		}
		capabilities = append(capabilities, c)
	}

	return &Config{
		name:         name,
		description:  description,
		instructions: instructions,
		capabilities: capabilities,
		model:        opts.Model,
		maxSteps:     maxSteps,
	}, nil
}

func clampSteps(n int) int {
	if n < 1 {
		return 1
	}
	if n > AbsoluteMaxSteps {
		return AbsoluteMaxSteps
	}
	return n
}

func validateName(name string) error {
	if len(name) == 0 || len(name) > maxNameLength {
		return core.NewError(core.CodeInvalidAgentName, "Agent name must be 1-%d characters, got %d.", maxNameLength, len(name))
	}
	if !namePattern.MatchString(name) {
		return core.NewError(core.CodeInvalidAgentName, "Agent name must match [a-z0-9_-]+, got: %q", name)
	}
	return nil
}

// Name returns the unique identifier of the agent.
func (c *Config) Name() string { return c.name }

// Description returns what the agent is for, as shown in listings.
func (c *Config) Description() string { return c.description }

// Instructions returns the system prompt of the agent.
func (c *Config) Instructions() string { return c.instructions }

// Model returns the model identifier, or "" when the runner default applies.
func (c *Config) Model() string { return c.model }

// MaxSteps returns the clamped loop budget.
func (c *Config) MaxSteps() int { return c.maxSteps }

// Capabilities returns a copy of the tool names available to the agent.
func (c *Config) Capabilities() []string {
	caps := make([]string, len(c.capabilities))
	copy(caps, c.capabilities)
	return caps
}

// Summary is the public view of a Config shown in listings. Instructions are
// omitted so large prompts never echo back through the protocol.
type Summary struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Model        string   `json:"model"`
	MaxSteps     int      `json:"max_steps"`
	Capabilities []string `json:"capabilities"`
}

// Summary returns the listing view of the config.
func (c *Config) Summary() Summary {
	return Summary{
		Name:         c.name,
		Description:  c.description,
		Model:        c.model,
		MaxSteps:     c.maxSteps,
		Capabilities: c.Capabilities(),
	}
}
