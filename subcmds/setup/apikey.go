// Copyright (c) 2025 BVK Chaitanya

package setup

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"

	"github.com/visvasity/cli"
)

type APIKey struct {
	dataDir string
	key     string
}

func (c *APIKey) Purpose() string {
	return "Setup configures the signing key for the control API"
}

func (c *APIKey) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("api-key", flag.ContinueOnError)
	fset.StringVar(&c.dataDir, "data-dir", "", "path to the data directory")
	fset.StringVar(&c.key, "key", "", "signing key to use (default is a new random key)")
	return "api-key", fset, cli.CmdFunc(c.run)
}

func (c *APIKey) Description() string {
	return `

Command "api-key" saves a signing key for the bearer tokens of the control
API. Once configured, the server rejects API requests without a valid token.
Client commands sign their requests with the same key from the secrets file
or the LADDERBOT_API_KEY environment variable.

`
}

func (c *APIKey) run(ctx context.Context, args []string) error {
	key := c.key
	if len(key) == 0 {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return fmt.Errorf("could not generate a random key: %w", err)
		}
		key = hex.EncodeToString(buf)
	}

	secretsPath, secrets, err := loadSecrets(c.dataDir)
	if err != nil {
		return err
	}
	secrets.APIKey = key
	if err := saveSecrets(secretsPath, secrets); err != nil {
		return err
	}
	fmt.Fprintf(cli.Stdout(ctx), "saved api signing key in %s\n", secretsPath)
	return nil
}
