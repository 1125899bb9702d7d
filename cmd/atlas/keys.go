package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"taskmesh/atlas/pkg/cli"
)

var keysFlags struct {
	output string
	bytes  int
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage signing keys",
	Long: `Generate and manage the shared secret used to verify JWT signatures.

Tokens are signed with HMAC-SHA256, so the gateway and the identity
service that issues tokens must share the same secret.

Subcommands:
  generate - Generate a new signing secret

Examples:
  # Print a new secret to stdout
  atlas keys generate

  # Write the secret to the key file the gateway watches
  atlas keys generate --output /etc/atlas/signing.key`,
}

var keysGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new signing secret",
	Long: `Generate a cryptographically random signing secret, base64 encoded.

When --output is given the secret is written to the file with 0600
permissions. A gateway configured with signing_key_file watching that
path picks the new secret up without a restart.

Examples:
  # Generate a 32-byte secret
  atlas keys generate

  # Generate a longer secret
  atlas keys generate --bytes 64

  # Rotate the key file in place
  atlas keys generate --output /etc/atlas/signing.key`,
	RunE: generateKey,
}

func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.AddCommand(keysGenerateCmd)

	keysGenerateCmd.Flags().StringVarP(&keysFlags.output, "output", "o", "", "write the secret to a file instead of stdout")
	keysGenerateCmd.Flags().IntVar(&keysFlags.bytes, "bytes", 32, "secret length in bytes before encoding")
}

func generateKey(cmd *cobra.Command, args []string) error {
	if keysFlags.bytes < 16 {
		return cli.NewCommandError("keys generate", fmt.Errorf("secret must be at least 16 bytes, got %d", keysFlags.bytes))
	}

	raw := make([]byte, keysFlags.bytes)
	if _, err := rand.Read(raw); err != nil {
		return cli.NewCommandError("keys generate", fmt.Errorf("failed to generate secret: %w", err))
	}
	secret := base64.RawURLEncoding.EncodeToString(raw)

	if keysFlags.output == "" {
		fmt.Println(secret)
		return nil
	}

	if err := os.WriteFile(keysFlags.output, []byte(secret+"\n"), 0o600); err != nil {
		return cli.NewCommandError("keys generate", fmt.Errorf("failed to write key file: %w", err))
	}
	fmt.Printf("✓ Signing secret written to %s\n", keysFlags.output)
	return nil
}
