package ai

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultSystemPrompt is the persona and safety preamble sent ahead of every window.
const DefaultSystemPrompt = `You are a supportive mental health assistant.
Provide empathetic, helpful responses to users seeking emotional support or advice.
Never claim to be a licensed therapist or medical professional.
Encourage users to seek professional help for serious mental health issues.
Focus on active listening, validation, and positive coping strategies.
Maintain privacy and confidentiality in all conversations.
If a user expresses thoughts of self-harm or harm to others, provide crisis resources.`

// FallbackReply replaces an empty completion.
const FallbackReply = "I apologize, but I was unable to generate a response."

// PromptProfile is the operator-configured text around each exchange.
type PromptProfile struct {
	SystemPrompt  string `yaml:"system_prompt"`
	FallbackReply string `yaml:"fallback_reply"`
}

// DefaultPromptProfile returns the built-in preamble and fallback.
func DefaultPromptProfile() PromptProfile {
	return PromptProfile{
		SystemPrompt:  DefaultSystemPrompt,
		FallbackReply: FallbackReply,
	}
}

// LoadPromptProfile reads a profile from path. YAML files may set either field;
// any other file is taken verbatim as the system prompt. An empty path returns
// the defaults.
func LoadPromptProfile(path string) (PromptProfile, error) {
	profile := DefaultPromptProfile()
	if path == "" {
		return profile, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return PromptProfile{}, fmt.Errorf("failed to read prompt profile %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var loaded PromptProfile
		if err := yaml.Unmarshal(data, &loaded); err != nil {
			return PromptProfile{}, fmt.Errorf("failed to parse prompt profile %s: %w", path, err)
		}
		if s := strings.TrimSpace(loaded.SystemPrompt); s != "" {
			profile.SystemPrompt = s
		}
		if s := strings.TrimSpace(loaded.FallbackReply); s != "" {
			profile.FallbackReply = s
		}
	default:
		text := strings.TrimSpace(string(data))
		if text == "" {
			return PromptProfile{}, fmt.Errorf("prompt profile %s is empty", path)
		}
		profile.SystemPrompt = text
	}

	return profile, nil
}
