package main

import (
	"bufio"
	"fmt"
	"strings"

	"timer-sync-server/pkg/hash"

	"github.com/spf13/cobra"
)

func newHashTokenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-token [token]",
		Short: "Print a bcrypt hash suitable for SYNC_TOKEN_HASH",
		Long: `Hashes a bearer secret so the server can be configured without keeping
the plaintext on disk. With no argument the token is read from stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var token string
			if len(args) == 1 {
				token = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read token from stdin: %w", err)
				}
				token = strings.TrimRight(line, "\r\n")
			}

			hashed, err := hash.Hash(token)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), hashed)
			return nil
		},
	}
}
