package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxpal/internal/assistant"
	"github.com/teemow/inboxpal/internal/gmail"
	"github.com/teemow/inboxpal/internal/google"
)

const (
	envAccessToken  = "GOOGLE_ACCESS_TOKEN"
	envRefreshToken = "GOOGLE_REFRESH_TOKEN"
)

type rankOptions struct {
	commonOptions
	token        string
	refreshToken string
	maxResults   int64
}

func newRankCmd() *cobra.Command {
	o := &rankOptions{}

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Print the inbox ordered by importance",
		Long: `Fetch the most recent messages and print them in the order the language
model ranks them. If the access token was refreshed along the way the new
token is printed so it can be reused.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			o.loadSecrets()
			if o.token == "" {
				o.token = os.Getenv(envAccessToken)
			}
			if o.refreshToken == "" {
				o.refreshToken = os.Getenv(envRefreshToken)
			}
			return runRank(cmd.Context(), o, cmd.OutOrStdout())
		},
	}

	addCommonFlags(cmd, &o.commonOptions)
	cmd.Flags().StringVar(&o.token, "token", "", "Google access token (can also be set via "+envAccessToken+")")
	cmd.Flags().StringVar(&o.refreshToken, "refresh-token", "", "Google refresh token (can also be set via "+envRefreshToken+")")
	cmd.Flags().Int64Var(&o.maxResults, "max-results", gmail.DefaultRankingResults, "Number of recent messages to rank")

	return cmd
}

func runRank(ctx context.Context, o *rankOptions, out io.Writer) error {
	if o.token == "" {
		return fmt.Errorf("an access token is required (--token or %s)", envAccessToken)
	}
	cfg := &o.cfg
	if err := cfg.Validate(); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	logger := o.newLogger()
	svc, err := buildAssistant(cfg, nil, logger)
	if err != nil {
		return err
	}

	res, err := svc.RankedEmails(ctx, google.Credentials{
		AccessToken:  o.token,
		RefreshToken: o.refreshToken,
	}, o.maxResults)
	if err != nil {
		return fmt.Errorf("failed to rank inbox: %w", err)
	}

	printRanking(out, res)
	return nil
}

func printRanking(out io.Writer, res assistant.RankedResult) {
	if res.Degraded {
		fmt.Fprintf(out, "ranking degraded (%s), unread first\n", res.DegradedReason)
	}
	for i, e := range res.Emails {
		marker := " "
		if e.Unread {
			marker = "*"
		}
		fmt.Fprintf(out, "%2d. %s %s | %s\n", i+1, marker, e.From, e.Subject)
	}
	if res.Refresh != nil {
		fmt.Fprintf(out, "new access token: %s (expires %s)\n", res.Refresh.AccessToken, res.Refresh.Expiry.UTC().Format(time.RFC3339))
	}
}
