package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmss-network/mmss/internal/daemon"
)

func init() {
	metricsCmd.Flags().BoolVar(&metricsDerived, "derived", false,
		"Include rule-derived metrics in the output")
	rootCmd.AddCommand(metricsCmd)
}

var metricsDerived bool

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Print the current geometric metrics snapshot",
	RunE:  runMetrics,
}

func runMetrics(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	snapshot := d.Processor.Metrics()
	if metricsDerived {
		snapshot = d.Rules.Evaluate(snapshot)
		fmt.Printf("rules: %s\n\n", strings.Join(d.Rules.RuleNames(), ", "))
	}
	return printMetrics(snapshot)
}
