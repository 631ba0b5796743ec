package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"SodiumWatch/pkg/collector"
	"SodiumWatch/pkg/database"
	"SodiumWatch/pkg/gateway"
	"SodiumWatch/pkg/messaging"
	"SodiumWatch/pkg/model"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Store.Migrate(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return nil
		},
	}
}

func newUserCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "user", Short: "Manage users"}

	var tz string
	create := &cobra.Command{
		Use:   "create <username>",
		Short: "Create a user and print its id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			user := &model.User{Username: args[0], TimeZone: tz}
			if err := a.Store.User().Create(user); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), user.ID)
			return nil
		},
	}
	create.Flags().StringVar(&tz, "tz", "", "IANA time zone, e.g. Asia/Kolkata (default sodium.time_zone)")

	cmd.AddCommand(create)
	return cmd
}

func newDeviceCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "device", Short: "Manage paired devices"}

	var name string
	create := &cobra.Command{
		Use:   "create <username>",
		Short: "Pair a device and print its token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			user, err := lookupUser(a.Store, args[0])
			if err != nil {
				return err
			}
			dev, err := a.Store.Device().Create(user.ID, name)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "id:    %s\n", dev.ID)
			fmt.Fprintf(out, "name:  %s\n", dev.Name)
			fmt.Fprintf(out, "token: %s\n", dev.Token)
			return nil
		},
	}
	create.Flags().StringVar(&name, "name", "Spoon", "device name")

	list := &cobra.Command{
		Use:   "list <username>",
		Short: "List a user's devices",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			user, err := lookupUser(a.Store, args[0])
			if err != nil {
				return err
			}
			devices, err := a.Store.Device().ListByUser(user.ID)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tLAST SEEN")
			for _, d := range devices {
				seen := "never"
				if d.LastSeen != nil {
					seen = d.LastSeen.Format(time.RFC3339)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", d.ID, d.Name, seen)
			}
			return w.Flush()
		},
	}

	cmd.AddCommand(create, list)
	return cmd
}

func newImportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <username> <file.csv>",
		Short: "Import meals from a CSV file (name,sodium_mg,recorded_at,portion)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			user, err := lookupUser(a.Store, args[0])
			if err != nil {
				return err
			}
			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()

			id := &gateway.Identity{UserID: user.ID, Location: user.Location(a.Location)}
			report, err := collector.NewCSVImporter(a.Gateway, a.Log).Import(cmd.Context(), id, f)
			out := cmd.OutOrStdout()
			if report != nil {
				for _, skipped := range report.Skipped {
					fmt.Fprintf(out, "skipped %v\n", skipped)
				}
				fmt.Fprintf(out, "imported %d meals, skipped %d rows\n", report.Imported, len(report.Skipped))
			}
			return err
		},
	}
}

func newEventsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "events", Short: "Inspect the event stream"}

	var consumer string
	tail := &cobra.Command{
		Use:   "tail",
		Short: "Print meal and alert events as they are published",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()
			if a.NATS == nil {
				return errors.New("nats.url is not configured")
			}

			out := cmd.OutOrStdout()
			err = a.NATS.Subscribe(consumer, messaging.SubjectAll, func(subject string, data []byte) error {
				_, err := fmt.Fprintf(out, "%s %s\n", subject, data)
				return err
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()
			return nil
		},
	}
	tail.Flags().StringVar(&consumer, "consumer", "sodiumctl-tail", "durable consumer name")

	cmd.AddCommand(tail)
	return cmd
}

func lookupUser(store *database.Store, username string) (*model.User, error) {
	user, err := store.User().GetByUsername(username)
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("no user named %q", username)
	}
	return user, err
}
