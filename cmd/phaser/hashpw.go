// Package main provides the phaser CLI application.
package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phaser-svc/phaser/pkg/errors"
	"github.com/phaser-svc/phaser/pkg/hash"
	"github.com/phaser-svc/phaser/pkg/primitives"
)

// hashpwCmd represents the hashpw command
var hashpwCmd = &cobra.Command{
	Use:   "hashpw",
	Short: "Hash a password for the credential store",
	Long: `Hash a password with Argon2id and print the encoded string.

The password is read from stdin unless --password is given. The default
policy requires 8 to 20 characters with at least one lowercase letter,
one uppercase letter, one digit and one symbol, and no character
repeated three times in a row; --no-policy hashes the password as is.

With --verify the password is checked against an existing encoded hash
instead of producing a new one.`,
	RunE: hashPassword,
}

// hashpwFlags holds the flags for the hashpw command
type hashpwFlags struct {
	password string
	verify   string
	noPolicy bool
}

var hashpwOpts hashpwFlags

func init() {
	rootCmd.AddCommand(hashpwCmd)

	hashpwCmd.Flags().StringVar(&hashpwOpts.password, "password", "", "Password to hash (read from stdin when omitted)")
	hashpwCmd.Flags().StringVar(&hashpwOpts.verify, "verify", "", "Verify the password against this encoded hash")
	hashpwCmd.Flags().BoolVar(&hashpwOpts.noPolicy, "no-policy", false, "Skip the password policy check")
}

func hashPassword(cmd *cobra.Command, args []string) error {
	plain := hashpwOpts.password
	if plain == "" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return errors.ValidationError("read password from stdin", err)
		}
		plain = strings.TrimRight(string(data), "\r\n")
	}
	if plain == "" {
		return errors.ValidationError("empty password", nil)
	}

	hasher := hash.NewArgon2()

	if hashpwOpts.verify != "" {
		pw, err := primitives.PasswordFromHash(hasher, hashpwOpts.verify)
		if err != nil {
			return errors.ValidationError("parse encoded hash", err)
		}
		if err := pw.Confirm(plain); err != nil {
			return errors.ValidationError("verify password", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "password matches")
		return nil
	}

	if hashpwOpts.noPolicy {
		encoded, err := hasher.Hash(plain)
		if err != nil {
			return errors.ValidationError("hash password", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), encoded)
		return nil
	}

	pw, err := primitives.NewPassword(hasher, plain)
	if err != nil {
		return errors.ValidationError("hash password", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), pw.String())
	return nil
}
