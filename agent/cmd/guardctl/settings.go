package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"focus-guard/agent/internal/models"

	"github.com/spf13/cobra"
)

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "Show the site configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := app.Config.Read(cmd.Context())
		if jsonFlag {
			return printJSON(cfg)
		}
		s := cfg.Settings
		fmt.Printf("Allowed %02d:00-%02d:00  weekend block: %v  vacation: %v  redirect: %s\n",
			s.AllowedAfterHour, s.AllowedEndHour, s.TotalWeekendBlock, s.VacationMode, s.RedirectURL)
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "CATEGORY\tON\tDOMAIN\tNAME\tPLATFORM\tSITE ON")
		for _, key := range models.AllCategories {
			cat := cfg.Category(key)
			if len(cat.Sites) == 0 {
				fmt.Fprintf(tw, "%s\t%v\t-\t-\t-\t-\n", key, cat.Enabled)
			}
			for _, site := range cat.Sites {
				fmt.Fprintf(tw, "%s\t%v\t%s\t%s\t%s\t%v\n", key, cat.Enabled, site.Domain, site.Name, models.PlatformFor(key, site.Domain), site.IsEnabled())
			}
		}
		return tw.Flush()
	},
}

var patchCmd = &cobra.Command{
	Use:   "patch <category|settings> <key> <json-value>",
	Short: "Update one configuration field",
	Example: `  guardctl patch settings allowedAfterHour 14
  guardctl patch newsSites enabled true
  guardctl patch customSites sites '[{"domain":"reddit.com","name":"Reddit"}]'`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		var value any
		if err := json.Unmarshal([]byte(args[2]), &value); err != nil {
			value = args[2]
		}
		if err := app.Config.Patch(cmd.Context(), args[0], args[1], value); err != nil {
			return err
		}
		fmt.Printf("%s.%s updated\n", args[0], args[1])
		return nil
	},
}

var vacationCmd = &cobra.Command{
	Use:       "vacation <on|off>",
	Short:     "Toggle vacation mode",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE: func(cmd *cobra.Command, args []string) error {
		var on bool
		switch args[0] {
		case "on":
			on = true
		case "off":
		default:
			return fmt.Errorf("expected on or off, got %q", args[0])
		}
		if err := app.Config.Patch(cmd.Context(), "settings", "vacationMode", on); err != nil {
			return err
		}
		fmt.Printf("Vacation mode %s\n", args[0])
		return nil
	},
}

var resetVisitsCmd = &cobra.Command{
	Use:   "reset-visits [platform...]",
	Short: "Forget today's visits (all platforms when none given)",
	RunE: func(cmd *cobra.Command, args []string) error {
		platforms := make([]models.Platform, 0, len(args))
		for _, a := range args {
			p := models.Platform(a)
			if !p.Valid() {
				return fmt.Errorf("unknown platform %q", a)
			}
			platforms = append(platforms, p)
		}
		if err := app.Config.ResetVisits(cmd.Context(), platforms...); err != nil {
			return err
		}
		fmt.Println("Visits reset")
		return nil
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Re-derive the legacy settings record from the site configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.Config.Sync(cmd.Context()); err != nil {
			return err
		}
		if jsonFlag {
			return printJSON(app.Config.ReadLegacy(cmd.Context()))
		}
		fmt.Println("Legacy settings synced")
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{sitesCmd, syncCmd} {
		c.Flags().BoolVar(&jsonFlag, "json", false, "print JSON")
	}
	rootCmd.AddCommand(sitesCmd, patchCmd, vacationCmd, resetVisitsCmd, syncCmd)
}
