package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Shows the schedule version and service status for a date",
	Args:  cobra.NoArgs,
	RunE:  status,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func status(cmd *cobra.Command, args []string) error {
	when, err := now()
	if err != nil {
		return err
	}

	static, err := loadStatic(cmd.Context(), when)
	if err != nil {
		return err
	}

	fmt.Printf("Schedule:  %s (valid from %s, updated %s)\n", static.Schedule.ID, static.Schedule.ValidFrom, static.Schedule.UpdatedAt)
	fmt.Printf("Date:      %s\n", when.Format("2006-01-02 (Monday)"))

	st := static.ServiceStatus(when)
	if !st.IsOperating {
		fmt.Printf("Service:   not operating (%s)\n", st.Reason)
		if next, found := static.Calendar.NextOperatingDay(when); found {
			fmt.Printf("Next:      %s\n", next.Format("2006-01-02 (Monday)"))
		}
		return nil
	}

	fmt.Printf("Service:   %s\n", st.DayType)
	fmt.Printf("Lines:     %s\n", lineNames(static.OperatingLines(when)))
	return nil
}
