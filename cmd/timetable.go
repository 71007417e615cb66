package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var timetableCmd = &cobra.Command{
	Use:   "timetable <direction_id>",
	Short: "Prints the full timetable of a direction",
	Args:  cobra.ExactArgs(1),
	RunE:  printTimetable,
}

var dayTypeFlag string

func init() {
	timetableCmd.Flags().StringVarP(&dayTypeFlag, "day-type", "t", "", "weekday or weekend (default from date)")
	rootCmd.AddCommand(timetableCmd)
}

func printTimetable(cmd *cobra.Command, args []string) error {
	directionID := args[0]

	when, err := now()
	if err != nil {
		return err
	}
	dayType, err := parseDayType(dayTypeFlag, when)
	if err != nil {
		return err
	}

	static, err := loadStatic(cmd.Context(), when)
	if err != nil {
		return err
	}

	direction, found := static.Direction(directionID)
	if !found {
		return fmt.Errorf("unknown direction '%s'", directionID)
	}
	line, _ := static.LineForDirection(directionID)

	grid := static.Timetable(directionID, dayType)
	fmt.Printf("Line %s to %s, %s\n\n", line.Name, direction.Name, dayType)

	for pos, stop := range grid.Stops {
		row := make([]string, len(grid.Trips))
		for i := range grid.Trips {
			row[i] = grid.Times[i][pos]
			if row[i] == "" {
				row[i] = "  -  "
			}
		}
		fmt.Printf("%-28s %s\n", stop.StopName, strings.Join(row, " "))
	}
	return nil
}
