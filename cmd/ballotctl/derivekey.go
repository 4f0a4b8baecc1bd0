package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ballot-backend/encryption"
	"ballot-backend/models"
	"ballot-backend/storage"
)

var (
	deriveKeyHexOnly bool

	showStore       string
	showStorePath   string
	showPostgresDSN string
	showKey         string
)

func init() {
	deriveKeyCmd.Flags().BoolVar(&deriveKeyHexOnly, "hex", false, "Print only the hex key without the ballots/ prefix")
	rootCmd.AddCommand(deriveKeyCmd)

	showCmd.Flags().StringVar(&showStore, "store", storage.KindFile, "Ballot store backend: file, sqlite or postgres")
	showCmd.Flags().StringVar(&showStorePath, "store-path", "data", "Directory of the file and sqlite stores")
	showCmd.Flags().StringVar(&showPostgresDSN, "postgres-dsn", "", "PostgreSQL connection string")
	showCmd.Flags().StringVar(&showKey, "key", "", "Storage key (hex, with or without the ballots/ prefix) to look up instead of an identity")
	rootCmd.AddCommand(showCmd)
}

var deriveKeyCmd = &cobra.Command{
	Use:   "derive-key <identity>",
	Short: "Print the storage key of an identity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		identity := strings.TrimSpace(args[0])
		if identity == "" {
			return errors.New("identity must not be empty")
		}
		pepper, err := loadPepper()
		if err != nil {
			return err
		}

		key := encryption.DeriveKey(identity, pepper)
		if deriveKeyHexOnly {
			fmt.Fprintln(cmd.OutOrStdout(), key.Hex())
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), key.ObjectKey())
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show [<identity> | --key <hex>]",
	Short: "Print the stored ballot of an identity or storage key",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if showStore == storage.KindMemory {
			return errors.New("the memory store is not shared between processes")
		}
		key, err := showTarget(args)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		store, closeStore, err := storage.Open(ctx, storage.Options{
			Kind:        showStore,
			Path:        showStorePath,
			PostgresDSN: showPostgresDSN,
		})
		if err != nil {
			return err
		}
		defer closeStore()

		record, err := store.Get(ctx, key)
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("no ballot stored at %s", key.ObjectKey())
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "key:     %s\n", record.Key)
		fmt.Fprintf(out, "updated: %s\n", record.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"))
		fmt.Fprintf(out, "digest:  %s\n", record.Digest.Hex())
		fmt.Fprintf(out, "ballot:  %s\n", record.Body)
		return nil
	},
}

// showTarget resolves the key to look up: a hex key given with --key needs
// no pepper, an identity is derived under the configured pepper.
func showTarget(args []string) (models.DerivedKey, error) {
	if showKey != "" {
		if len(args) > 0 {
			return models.DerivedKey{}, errors.New("pass either an identity or --key, not both")
		}
		return models.ParseDerivedKey(strings.TrimPrefix(strings.TrimSpace(showKey), models.BallotKeyPrefix+"/"))
	}
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return models.DerivedKey{}, errors.New("identity must not be empty")
	}
	pepper, err := loadPepper()
	if err != nil {
		return models.DerivedKey{}, err
	}
	return encryption.DeriveKey(strings.TrimSpace(args[0]), pepper), nil
}
