package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"busboard.dev/timetable/model"
)

var stopsCmd = &cobra.Command{
	Use:   "stops [lat lng] [limit]",
	Short: "Lists stops, optionally by distance from a geographical location",
	Args:  cobra.RangeArgs(0, 3),
	RunE:  stops,
}

func init() {
	rootCmd.AddCommand(stopsCmd)
}

func stops(cmd *cobra.Command, args []string) error {
	var lat, lng float64
	var limit int
	var err error

	gotLocation := false
	if len(args) == 1 {
		return fmt.Errorf("missing lng")
	}
	if len(args) >= 2 {
		gotLocation = true
		lat, err = strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid lat: %w", err)
		}
		lng, err = strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid lng: %w", err)
		}
	}
	if len(args) == 3 {
		limit, err = strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid limit: %w", err)
		}
		if limit < 0 {
			return fmt.Errorf("limit must be >= 0")
		}
	}

	when, err := now()
	if err != nil {
		return err
	}

	static, err := loadStatic(cmd.Context(), when)
	if err != nil {
		return err
	}

	dayType := model.DayTypeOf(when)

	if gotLocation {
		for _, n := range static.NearbyStops(lat, lng, limit) {
			fmt.Printf("%s: %s (%.0f m, %s)\n", n.Stop.ID, n.Stop.Name, n.Distance, lineNames(static.LinesForStop(n.Stop.ID, dayType)))
		}
		return nil
	}

	// sort by name
	stops := append([]*model.Stop{}, static.Stops()...)
	sort.Slice(stops, func(i, j int) bool {
		return stops[i].Name < stops[j].Name
	})
	for _, stop := range stops {
		fmt.Printf("%s: %s (%s)\n", stop.ID, stop.Name, lineNames(static.LinesForStop(stop.ID, dayType)))
	}

	return nil
}

func lineNames(lines []*model.Line) string {
	names := ""
	for i, l := range lines {
		if i > 0 {
			names += ", "
		}
		names += l.Name
	}
	if names == "" {
		return "no service"
	}
	return names
}
