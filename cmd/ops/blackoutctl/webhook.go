package main

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"holidayguard/internal/notifications/webhook"
	"holidayguard/internal/types"
)

func newWebhookCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Manage the notification webhook",
	}
	cmd.AddCommand(newWebhookSetCmd(c))
	return cmd
}

func newWebhookSetCmd(c *cli) *cobra.Command {
	var (
		param     string
		overwrite bool
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store the webhook URL as a SecureString parameter",
		Long: "Reads the webhook URL from stdin without echo and stores it under --param.\n" +
			"Point WEBHOOK_URL_SSM_PARAM at the same path.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := readSecret(cmd.InOrStdin(), cmd.ErrOrStderr(), "Webhook URL: ")
			if err != nil {
				return err
			}
			if err := validateWebhookURL(raw); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Received %d chars.\n", len(raw))

			ctx := cmd.Context()
			if err := c.guard.CheckURL(ctx, raw); err != nil {
				return fmt.Errorf("webhook host rejected: %w", err)
			}
			store, err := c.newStore(ctx)
			if err != nil {
				return err
			}
			if err := store.PutSecret(ctx, param, raw, "holidayguard notification webhook", overwrite); err != nil {
				if types.CodeOf(err) == types.ErrCodeConflictParameterExists {
					return fmt.Errorf("%s already exists; pass --overwrite to replace it", param)
				}
				return err
			}

			platform := webhook.NewPlatformRegistry().Detect(raw, c.cfg.Notification.PlatformOverride)
			fmt.Fprintf(cmd.OutOrStdout(), "Stored %s webhook in %s\n", platform, param)
			return nil
		},
	}
	cmd.Flags().StringVar(&param, "param", "", "Parameter Store path for the URL")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace an existing parameter")
	_ = cmd.MarkFlagRequired("param")
	return cmd
}

// readSecret reads one line without echo when in is a terminal.
func readSecret(in io.Reader, prompt io.Writer, label string) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, label)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("reading secret input: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("reading secret input: %w", err)
		}
		return "", fmt.Errorf("no webhook URL on stdin")
	}
	return strings.TrimSpace(scanner.Text()), nil
}

func validateWebhookURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("webhook URL is empty")
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return fmt.Errorf("webhook URL is not a valid absolute URL")
	}
	if u.Scheme != "https" {
		return fmt.Errorf("webhook URL must use https, got %q", u.Scheme)
	}
	return nil
}
