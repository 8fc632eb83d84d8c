package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/iudanet/autopark/internal/client/fleet"
	pkgapi "github.com/iudanet/autopark/pkg/api"
)

// dateLayout формат дат в аргументах и выводе
const dateLayout = "2006-01-02"

func (c *Cli) newVehiclesCommand() *cobra.Command {
	var (
		account   string
		available bool
	)

	cmd := &cobra.Command{
		Use:   "vehicles",
		Short: "List vehicles across parking and dealer accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := fleet.Filter{AccountID: account}
			if cmd.Flags().Changed("available") {
				filter.Available = &available
			}

			vehicles, err := c.fleet.Vehicles(cmd.Context(), filter)
			if err != nil {
				return err
			}

			if len(vehicles) == 0 {
				c.io.Println("No vehicles found.")
				return nil
			}

			c.io.Printf("Found %d vehicle(s):\n\n", len(vehicles))
			tw := tabwriter.NewWriter(c.io, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tVEHICLE\tPLATE\tACCOUNT\tPRICE/DAY\tAVAILABLE")
			for _, v := range vehicles {
				fmt.Fprintf(tw, "%s\t%s %s (%d)\t%s\t%s\t%.0f\t%s\n",
					v.ID, v.Brand, v.Model, v.Year, v.Plate, v.AccountName, v.PricePerDay, yesNo(v.Available))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "Only vehicles of this account")
	cmd.Flags().BoolVar(&available, "available", false, "Filter by availability")
	return cmd
}

func (c *Cli) newVehicleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "vehicle <id>",
		Short: "Show vehicle details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vehicle, err := c.fleet.Vehicle(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return vehicleTmpl.Execute(c.io, vehicle)
		},
	}
}

func (c *Cli) newReserveCommand() *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "reserve <vehicle-id>",
		Short: "Reserve a vehicle for a period",
		Long:  `Reserve a vehicle from --from (inclusive) to --to (exclusive), dates as YYYY-MM-DD.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseDate("from", from)
			if err != nil {
				return err
			}
			end, err := parseDate("to", to)
			if err != nil {
				return err
			}

			reservation, err := c.fleet.Reserve(cmd.Context(), pkgapi.ReserveRequest{
				VehicleID: args[0],
				StartDate: start,
				EndDate:   end,
			})
			if err != nil {
				return err
			}

			c.io.Println("✓ Reservation confirmed")
			c.io.Printf("Reservation ID: %s\n", reservation.ID)
			c.io.Printf("Period: %s → %s\n", reservation.StartDate.Format(dateLayout), reservation.EndDate.Format(dateLayout))
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "End date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func (c *Cli) newReservationsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reservations",
		Short: "List your reservations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reservations, err := c.fleet.Reservations(cmd.Context())
			if err != nil {
				return err
			}

			if len(reservations) == 0 {
				c.io.Println("No reservations.")
				return nil
			}

			tw := tabwriter.NewWriter(c.io, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tVEHICLE\tFROM\tTO\tSTATUS")
			for _, r := range reservations {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					r.ID, r.VehicleID, r.StartDate.Format(dateLayout), r.EndDate.Format(dateLayout), r.Status)
			}
			return tw.Flush()
		},
	}
}

func (c *Cli) newCancelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <reservation-id>",
		Short: "Cancel a reservation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.fleet.Cancel(cmd.Context(), args[0]); err != nil {
				return err
			}
			c.io.Println("✓ Reservation cancelled")
			return nil
		},
	}
}

func parseDate(name, value string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s date %q, expected YYYY-MM-DD", name, value)
	}
	return t, nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
