package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/heartbeat/crypt"
)

func newCryptCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crypt",
		Short: "Encrypt and decrypt text the way persistent data files are encrypted.",
	}

	cmd.PersistentFlags().String("salt", "", "encryption key; defaults to HEARTBEAT_ENCRYPTION_SALT")
	cmd.PersistentFlags().String("iv", "", "initialization vector; defaults to HEARTBEAT_ENCRYPTION_IV")
	cmd.PersistentFlags().String("derive", "", "derive the key and IV with HKDF using this info string")

	encrypt := &cobra.Command{
		Use:   "encrypt TEXT",
		Short: "Print the base64 ciphertext of TEXT.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := encryptorFromFlags(cmd)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), e.Encrypt(args[0]))

			return nil
		},
	}

	decrypt := &cobra.Command{
		Use:   "decrypt CIPHERTEXT",
		Short: "Print the plain text of a base64 ciphertext.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := encryptorFromFlags(cmd)
			if err != nil {
				return err
			}

			plain, err := e.Decrypt(args[0])
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), plain)

			return nil
		},
	}

	cmd.AddCommand(encrypt, decrypt)

	return cmd
}

func encryptorFromFlags(cmd *cobra.Command) (*crypt.Encryptor, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	salt, _ := cmd.Flags().GetString("salt")
	if salt == "" {
		salt = cfg.EncryptionSalt
	}

	iv, _ := cmd.Flags().GetString("iv")
	if iv == "" {
		iv = cfg.EncryptionIV
	}

	if salt == "" || iv == "" {
		return nil, errors.New("a salt and an iv are required")
	}

	var opts []crypt.Option
	if info, _ := cmd.Flags().GetString("derive"); info != "" {
		opts = append(opts, crypt.WithKeyDerivation(info))
	}

	return crypt.New(salt, iv, opts...)
}
