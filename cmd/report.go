package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/bam241/recycle/sim/record"
)

var reportDBPath string // Recorded database to summarize

// reportCmd summarizes a recorded simulation database
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize enrichment activity and commodity flows from a run database",
	Run: func(cmd *cobra.Command, args []string) {
		db, err := record.OpenDB(reportDBPath)
		if err != nil {
			logrus.Fatalf("Cannot open database: %v", err)
		}
		defer db.Close()

		totals, err := record.EnrichmentTotals(db)
		if err != nil {
			logrus.Fatalf("Enrichment query failed: %v", err)
		}
		flows, err := record.CommodityFlows(db)
		if err != nil {
			logrus.Fatalf("Commodity query failed: %v", err)
		}

		tw := tabwriter.NewWriter(os.Stdout, 4, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "sim\tagent\tprototype\tnat-u (kg)\tswu\tops")
		for _, t := range totals {
			fmt.Fprintf(tw, "%v\t%v\t%v\t%.4f\t%.4f\t%v\n",
				short(t.SimID), t.AgentID, t.Prototype, t.NaturalUranium, t.SWU, t.Operations)
		}
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "sim\tcommodity\tquantity (kg)\ttrades")
		for _, f := range flows {
			fmt.Fprintf(tw, "%v\t%v\t%.4f\t%v\n", short(f.SimID), f.Commodity, f.Quantity, f.Trades)
		}
		tw.Flush()
	},
}

// short truncates a run id for table display.
func short(simID string) string {
	if len(simID) > 8 {
		return simID[:8]
	}
	return simID
}

func init() {
	reportCmd.Flags().StringVar(&reportDBPath, "db", "", "Recorded SQLite database to query")
	_ = reportCmd.MarkFlagRequired("db")

	rootCmd.AddCommand(reportCmd)
}
