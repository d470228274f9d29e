// Package editor opens the user's $EDITOR to author free-form content.
package editor

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
)

var (
	ErrNoEditor  = errors.New("the EDITOR environment variable is not set")
	ErrEmptyFile = errors.New("the editor file is empty, nothing to send")
)

// Open launches $EDITOR on a temporary file seeded with preContent and
// returns the trimmed result. Log output is silenced while the editor
// owns the terminal.
func Open(preContent, suffix string) (string, error) {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		return "", ErrNoEditor
	}

	tmp, err := os.CreateTemp("", "nit-*"+suffix)
	if err != nil {
		return "", err
	}
	path := tmp.Name()
	defer os.Remove(path)

	if preContent != "" {
		if _, err := tmp.WriteString(preContent); err != nil {
			tmp.Close()
			return "", err
		}
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	if err := runSilenced(editor, path); err != nil {
		return "", err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	content := strings.TrimSpace(string(raw))
	if content == "" {
		return "", ErrEmptyFile
	}
	return content, nil
}

// runSilenced runs the editor with logging suppressed, so log lines do
// not bleed into a terminal editor. The previous level is restored on
// return.
func runSilenced(editor, path string) error {
	restore := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.Disabled)
	defer zerolog.SetGlobalLevel(restore)

	cmd := exec.Command(editor, path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("%s exited with code %d", editor, exitErr.ExitCode())
		}
		return fmt.Errorf("running %s: %w", editor, err)
	}
	return nil
}

// Content returns direct content when given, or falls back to the
// editor. quoted seeds the editor buffer, for quoted replies.
func Content(direct, quoted, suffix string) (string, error) {
	if direct != "" {
		return strings.TrimSpace(direct), nil
	}
	return Open(quoted, suffix)
}
