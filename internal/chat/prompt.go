package chat

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"
)

// DefaultSystemPromptFile is read when no prompt file is configured.
const DefaultSystemPromptFile = "system_prompt.txt"

// FallbackSystemPrompt is used when the prompt file does not exist.
const FallbackSystemPrompt = "You are a specialized scheduling assistant that helps with calendar management and booking appointments."

const timestampLayout = "2006-01-02 15:04:05 MST-0700"

// LoadSystemPrompt reads the system prompt from path. A missing file yields
// FallbackSystemPrompt; any other read error is returned.
func LoadSystemPrompt(path string, logger *slog.Logger) (string, error) {
	if path == "" {
		path = DefaultSystemPromptFile
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		if logger != nil {
			logger.Debug("System prompt file not found, using fallback", "path", path)
		}
		return FallbackSystemPrompt, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read system prompt %s: %w", path, err)
	}

	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return FallbackSystemPrompt, nil
	}
	return prompt, nil
}

// FormatTimestamp renders now the way it appears in prompts.
func FormatTimestamp(now time.Time) string {
	return now.Format(timestampLayout)
}

func systemMessageContent(prompt string, now time.Time) string {
	return fmt.Sprintf("%s\n\nThe current date and time is %s.", prompt, FormatTimestamp(now))
}

func reminderContent(now time.Time) string {
	return fmt.Sprintf("Reminder: The current date and time is %s.", FormatTimestamp(now))
}
