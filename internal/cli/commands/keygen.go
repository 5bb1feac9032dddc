package commands

import (
	"fmt"

	"github.com/leapstack-labs/leapdb/pkg/crypt"
	"github.com/spf13/cobra"
)

// NewKeygenCommand creates the keygen command.
func NewKeygenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate a field encryption key",
		Long: `Generate a random 256-bit key for encrypted columns, base64 encoded.

Store it in the LEAPDB_ENCRYPTION_KEY environment variable, in a secrets
file (encryption.key_file), or inline as encryption.key.`,
		Example: `  leapdb keygen > /run/secrets/encryption_key
  export LEAPDB_ENCRYPTION_KEY=$(leapdb keygen)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := crypt.GenerateKey()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), key)
			return err
		},
	}
}
