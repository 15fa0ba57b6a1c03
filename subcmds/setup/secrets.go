// Copyright (c) 2025 BVK Chaitanya

package setup

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bvk/ladderbot/server"
	"github.com/bvk/ladderbot/subcmds/cmdutil"
	"golang.org/x/term"
)

// loadSecrets returns the secrets file path in the data directory and its
// current contents. Missing file is treated as empty secrets.
func loadSecrets(dataDir string) (string, *server.Secrets, error) {
	dir, err := cmdutil.DataDir(dataDir)
	if err != nil {
		return "", nil, err
	}
	fpath := filepath.Join(dir, "secrets.json")
	secrets, err := server.SecretsFromFile(fpath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return "", nil, err
		}
		secrets = new(server.Secrets)
	}
	return fpath, secrets, nil
}

func saveSecrets(fpath string, secrets *server.Secrets) error {
	if err := secrets.Check(); err != nil {
		return err
	}
	js, err := json.MarshalIndent(secrets, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(fpath, js, os.FileMode(0600))
}

// readHidden prompts for a value on the terminal without echoing the input.
// It returns an empty string when the standard input is not a terminal.
func readHidden(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", nil
	}
	fmt.Fprint(os.Stderr, prompt)
	data, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("could not read from the terminal: %w", err)
	}
	return string(data), nil
}
