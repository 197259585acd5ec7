package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/j-veylop/doublers-tui/internal/secrets"
)

var secretCmd = &cobra.Command{
	Use:   "secret <NAME>",
	Short: "Resolve a secret and print where it came from",
	Long: `Resolve a secret the way a run does: the environment first, then the
Firestore secrets document. The value is printed redacted.

Example:
  doublers secret DHAN_TOKEN`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, closeLog, err := headless(nil)
		if err != nil {
			return err
		}
		defer closeLog()

		store, err := secrets.New(secrets.Options{
			KeyPath:    cfg.FirebaseKeyPath,
			ProjectID:  cfg.FirebaseProjectID,
			Collection: cfg.SecretsCollection,
			Document:   cfg.SecretsDocument,
			HTTPClient: &http.Client{Timeout: cfg.HTTPTimeout},
		})
		if err != nil {
			return err
		}
		defer store.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		name := strings.ToUpper(strings.TrimSpace(args[0]))
		value, err := store.Lookup(ctx, name)
		if err != nil {
			return err
		}

		out := newPrinter(cmd.OutOrStdout())
		out.heading("%s", name)
		fmt.Fprintf(out.w, "source: %s\n", store.Source(name))
		fmt.Fprintf(out.w, "value:  %s\n", secrets.Redact(value))
		return nil
	},
}
