package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"trainingportal/internal/calendar"

	"github.com/spf13/cobra"
)

func newGridCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "grid YEAR MONTH",
		Short: "Print the 6x7 calendar grid of a month (1-12); days of other months are bracketed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("year must be an integer: %q", args[0])
			}
			month, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("month must be an integer: %q", args[1])
			}
			if month < 1 || month > 12 {
				return fmt.Errorf("%w: month %d outside [1, 12]", calendar.ErrInvalidArgument, month)
			}
			cells, err := calendar.BuildMonthGrid(year, month-1)
			if err != nil {
				return err
			}
			printGrid(cmd.OutOrStdout(), year, month, cells)
			return nil
		},
	}
}

func printGrid(w io.Writer, year, month int, cells []calendar.DayCell) {
	fmt.Fprintf(w, "%s %d\n", time.Month(month), year)
	fmt.Fprintln(w, " Su  Mo  Tu  We  Th  Fr  Sa")
	for row := 0; row < calendar.GridRows; row++ {
		var b strings.Builder
		for _, c := range cells[row*calendar.DaysPerWeek : (row+1)*calendar.DaysPerWeek] {
			if c.InTargetMonth {
				fmt.Fprintf(&b, " %2d ", c.DayNumber)
			} else {
				fmt.Fprintf(&b, "[%2d]", c.DayNumber)
			}
		}
		fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
	}
}
