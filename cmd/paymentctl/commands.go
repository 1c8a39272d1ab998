package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nerbixa/payment-reconciler/internal/domain/entity"
)

func newRootCmd(open opener) *cobra.Command {
	var quiet bool

	rootCmd := &cobra.Command{
		Use:           "paymentctl",
		Short:         "Operator tooling for the payment reconciler",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress log output")

	connect := func() (*services, func(), error) { return open(quiet) }

	rootCmd.AddCommand(migrateCmd(connect))
	rootCmd.AddCommand(usersCmd(connect))
	rootCmd.AddCommand(orphansCmd(connect))
	return rootCmd
}

func migrateCmd(connect func() (*services, func(), error)) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations and indexes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, closeFn, err := connect()
			if err != nil {
				return err
			}
			defer closeFn()

			if err := svc.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

func usersCmd(connect func() (*services, func(), error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage users",
	}

	var id, email string
	create := &cobra.Command{
		Use:   "create",
		Short: "Provision a user with the default balance",
		Long: `Provision a user with 20 available and 0 used generations.

Use this when the identity provider's user-created event never arrived
and payments for the user are waiting in "orphans list".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, closeFn, err := connect()
			if err != nil {
				return err
			}
			defer closeFn()

			u, err := svc.Users.ProvisionUser(cmd.Context(), id, email)
			if err != nil {
				return fmt.Errorf("create user %s: %w", id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s) available=%d used=%d\n",
				u.ID, u.Email, u.AvailableGenerations, u.UsedGenerations)
			return nil
		},
	}
	create.Flags().StringVar(&id, "id", "", "user id as issued by the identity provider")
	create.Flags().StringVar(&email, "email", "", "user email")
	_ = create.MarkFlagRequired("id")
	_ = create.MarkFlagRequired("email")

	cmd.AddCommand(create)
	return cmd
}

func orphansCmd(connect func() (*services, func(), error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orphans",
		Short: "Inspect and credit payments that arrived before their user existed",
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List successful payments recorded without a credit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, closeFn, err := connect()
			if err != nil {
				return err
			}
			defer closeFn()

			txns, err := svc.Orphans.ListOrphans(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list orphans: %w", err)
			}
			printOrphans(cmd, txns)
			return nil
		},
	}
	list.Flags().IntVarP(&limit, "limit", "n", 50, "maximum rows")

	credit := &cobra.Command{
		Use:   "credit <transactionId>",
		Short: "Credit one recorded payment to its user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := connect()
			if err != nil {
				return err
			}
			defer closeFn()

			res, err := svc.Orphans.CreditOrphan(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("credit %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "credited %d tokens to %s, balance now %d\n",
				res.Tokens, res.UserID, res.NewBalance)
			return nil
		},
	}

	cmd.AddCommand(list, credit)
	return cmd
}

func printOrphans(cmd *cobra.Command, txns []*entity.Transaction) {
	out := cmd.OutOrStdout()
	if len(txns) == 0 {
		fmt.Fprintln(out, "no payments awaiting reconciliation")
		return
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TRANSACTION\tUSER\tAMOUNT\tDESCRIPTION\tPAID AT")
	for _, t := range txns {
		userID := "-"
		if t.UserID != nil {
			userID = *t.UserID
		}
		paidAt := "-"
		if t.PaidAt != nil {
			paidAt = t.PaidAt.UTC().Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			t.WebhookEventID, userID, entity.FormatMinorUnits(t.Amount, t.Currency), t.Description, paidAt)
	}
	_ = w.Flush()
}
