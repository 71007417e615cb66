package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"busboard.dev/timetable/model"
)

var routeCmd = &cobra.Command{
	Use:   "route <direction_id>",
	Short: "Prints the route of a direction or trip as a JSON array of [lat, lng]",
	Args:  cobra.ExactArgs(1),
	RunE:  route,
}

var tripName string

func init() {
	routeCmd.Flags().StringVarP(&tripName, "trip", "", "", "Trip name (default the direction's longest trip)")
	routeCmd.Flags().StringVarP(&dayTypeFlag, "day-type", "t", "", "weekday or weekend (default from date)")
	rootCmd.AddCommand(routeCmd)
}

func route(cmd *cobra.Command, args []string) error {
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
	if _, found := static.Direction(directionID); !found {
		return fmt.Errorf("unknown direction '%s'", directionID)
	}

	var coords []model.Coordinate
	if tripName != "" {
		coords = static.TripRouteCoordinates(directionID, tripName, dayType)
	} else {
		coords = static.DirectionRouteCoordinates(directionID, dayType)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(coords)
}
