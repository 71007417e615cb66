package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"busboard.dev/timetable"
	"busboard.dev/timetable/model"
)

var departuresCmd = &cobra.Command{
	Use:   "departures <stop_id>",
	Short: "Lists upcoming departures from a stop",
	Args:  cobra.ExactArgs(1),
	RunE:  departures,
}

var (
	limit       int
	directionID string
	watch       time.Duration
)

func init() {
	departuresCmd.Flags().IntVarP(&limit, "limit", "l", 10, "Limit the number of departures returned")
	departuresCmd.Flags().StringVarP(&directionID, "direction", "d", "", "Restrict to a specific direction")
	departuresCmd.Flags().DurationVarP(&watch, "watch", "w", 0, "Refresh at this interval until interrupted")
	rootCmd.AddCommand(departuresCmd)
}

func departures(cmd *cobra.Command, args []string) error {
	stopID := args[0]

	when, err := now()
	if err != nil {
		return err
	}

	current := &currentStatic{
		load: func(when time.Time) (*timetable.Static, error) {
			return loadStatic(cmd.Context(), when)
		},
	}

	static, err := current.at(when)
	if err != nil {
		return err
	}

	if _, found := static.Stop(stopID); !found {
		return fmt.Errorf("unknown stop '%s'", stopID)
	}

	for {
		if err := printDepartures(static, stopID, when); err != nil {
			return err
		}
		if watch <= 0 {
			return nil
		}

		select {
		case <-cmd.Context().Done():
			return nil
		case <-time.After(watch):
		}

		if atFlag != "" {
			when = when.Add(watch)
		} else {
			when = time.Now().In(cfg.Location)
		}
		static, err = current.at(when)
		if err != nil {
			return err
		}
	}
}

// Keeps a query context for the date being watched. A new date may
// bring a new schedule version, so the context is rebuilt whenever
// the date changes.
type currentStatic struct {
	static *timetable.Static
	load   func(time.Time) (*timetable.Static, error)
}

func (c *currentStatic) at(when time.Time) (*timetable.Static, error) {
	if c.static != nil && c.static.ReferenceDate.Format(model.DateFormat) == when.In(c.static.Location).Format(model.DateFormat) {
		return c.static, nil
	}

	static, err := c.load(when)
	if err != nil {
		return nil, err
	}
	c.static = static
	return static, nil
}

func printDepartures(static *timetable.Static, stopID string, when time.Time) error {
	status := static.ServiceStatus(when)
	if !status.IsOperating {
		fmt.Printf("No service on %s: %s\n", when.Format("2006-01-02"), status.Reason)
		return nil
	}

	var deps []model.Departure
	var err error
	if directionID != "" {
		deps, err = static.NextDeparturesForDirection(stopID, directionID, limit, when)
	} else {
		deps, err = static.NextDepartures(stopID, limit, when)
	}
	if err != nil {
		return err
	}

	if len(deps) == 0 {
		fmt.Println("No more departures today")
	}
	for _, d := range deps {
		fmt.Printf("%-4s %-24s %s  %3d min  (%s)\n", d.LineName, d.DestinationName, d.Time, d.MinutesUntil, d.PlatformID)
	}
	return nil
}
