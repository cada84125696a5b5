package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"focus-guard/agent/internal/api"
	"focus-guard/agent/internal/audit"

	"github.com/spf13/cobra"
)

var (
	windowFlag string
	jsonFlag   bool
)

func window(def time.Duration) (time.Duration, error) {
	if windowFlag == "" {
		return def, nil
	}
	return api.ParseWindow(windowFlag)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func stamp(ms int64) string {
	return time.UnixMilli(ms).Local().Format("2006-01-02 15:04:05")
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize usage history",
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := window(audit.HistoryRetention)
		if err != nil {
			return err
		}
		s, err := app.Audit.Summarize(cmd.Context(), w)
		if err != nil {
			return err
		}
		if jsonFlag {
			return printJSON(s)
		}
		fmt.Printf("Window: %v  entries: %d  bypass reasons: %d\n", w, s.Total, s.Reasons)
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ACTION\tCOUNT")
		for _, k := range sortedKeys(s.ByAction) {
			fmt.Fprintf(tw, "%s\t%d\n", k, s.ByAction[k])
		}
		fmt.Fprintln(tw, "PLATFORM\tCOUNT")
		for _, k := range sortedKeys(s.ByPlatform) {
			fmt.Fprintf(tw, "%s\t%d\n", k, s.ByPlatform[k])
		}
		return tw.Flush()
	},
}

func sortedKeys[K ~string, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List usage history entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := window(audit.HistoryRetention)
		if err != nil {
			return err
		}
		entries, err := app.Audit.History(cmd.Context(), w)
		if err != nil {
			return err
		}
		if jsonFlag {
			return printJSON(entries)
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "TIME\tACTION\tPLATFORM\tBLOCK\tREASON")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", stamp(e.Timestamp), e.Action, e.Platform, e.BlockType, e.Reason)
		}
		return tw.Flush()
	},
}

var reasonsCmd = &cobra.Command{
	Use:   "reasons",
	Short: "List bypass reasons",
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := window(audit.ReasonRetention)
		if err != nil {
			return err
		}
		entries, err := app.Audit.BypassReasons(cmd.Context(), w)
		if err != nil {
			return err
		}
		if jsonFlag {
			return printJSON(entries)
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "TIME\tPLATFORM\tBLOCK\tREASON")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", stamp(e.Timestamp), e.Platform, e.BlockType, e.Reason)
		}
		return tw.Flush()
	},
}

var trackingCmd = &cobra.Command{
	Use:   "tracking",
	Short: "Show detected disable/enable cycles",
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := app.Tracker.Stats(cmd.Context())
		if err != nil {
			return err
		}
		if jsonFlag {
			return printJSON(stats)
		}
		fmt.Printf("Disabled %d times, %v in total. Last heartbeat %s\n",
			stats.DisableCount,
			(time.Duration(stats.TotalDisabledDuration) * time.Millisecond).Round(time.Second),
			stamp(stats.LastActiveTimestamp))
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "RE-ENABLED\tMINUTES OFF")
		for _, e := range stats.EnableEvents {
			fmt.Fprintf(tw, "%s\t%d\n", stamp(e.Timestamp), e.DisabledDurationMinutes)
		}
		return tw.Flush()
	},
}

func init() {
	for _, c := range []*cobra.Command{statsCmd, historyCmd, reasonsCmd, trackingCmd} {
		c.Flags().BoolVar(&jsonFlag, "json", false, "print JSON")
		rootCmd.AddCommand(c)
	}
	for _, c := range []*cobra.Command{statsCmd, historyCmd, reasonsCmd} {
		c.Flags().StringVar(&windowFlag, "window", "", "query window, e.g. 24h or 30d")
	}
}
