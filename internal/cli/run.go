package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mmss-network/mmss/internal/daemon"
	"github.com/mmss-network/mmss/internal/domain"
)

func init() {
	runCmd.Flags().StringVar(&runOperator, "operator", "quaternion_rotation",
		"Geometric operator (free text, normalized to one of the four variants)")
	runCmd.Flags().StringVar(&runTarget, "target", "emergence_logic", "Target module")
	runCmd.Flags().StringVar(&runParams, "params", "", "Operator parameters as JSON")
	rootCmd.AddCommand(runCmd)
}

var (
	runOperator string
	runTarget   string
	runParams   string
)

var runCmd = &cobra.Command{
	Use:   "run TASK_NAME",
	Short: "Submit and execute a geometric task",
	Long:  `Submit one geometric task, execute it, and print the resulting metrics.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return fmt.Errorf("initialize daemon: %w", err)
	}
	defer d.Close()

	task := domain.GeometricTaskCommand{
		TaskName:          args[0],
		GeometricOperator: domain.ParseOperator(runOperator),
		TargetModule:      runTarget,
	}
	if runParams != "" {
		if !json.Valid([]byte(runParams)) {
			return fmt.Errorf("--params is not valid JSON")
		}
		task.Parameters = json.RawMessage(runParams)
	}

	id, err := d.Processor.SubmitTask(task)
	if err != nil {
		return err
	}

	result, err := d.Processor.ExecuteTask(id)
	if err != nil {
		return err
	}

	fmt.Printf("task %s completed\n\n", id)
	return printMetrics(result.Metrics)
}

// printMetrics writes a metrics snapshot as an aligned table.
func printMetrics(m domain.GeometricMetrics) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tVALUE")
	fmt.Fprintf(w, "v_geometric\t%g\n", m.VGeometric)
	fmt.Fprintf(w, "s_geometric\t%g\n", m.SGeometric)
	fmt.Fprintf(w, "q_oscillator\t%g\n", m.QOscillator)
	fmt.Fprintf(w, "quaternion_coherence\t%g\n", m.QuaternionCoherence)
	fmt.Fprintf(w, "emergent_electron_mass\t%g\n", m.EmergentElectronMass)
	fmt.Fprintf(w, "fine_structure_constant\t%g\n", m.FineStructureConstant)
	fmt.Fprintf(w, "zitterbewegung_entropy\t%g\n", m.ZitterbewegungEntropy)
	fmt.Fprintf(w, "topological_winding\t%g\n", m.TopologicalWinding)
	for _, name := range sortedCustomNames(m) {
		fmt.Fprintf(w, "%s\t%g\n", name, m.CustomMetrics[name])
	}
	return w.Flush()
}
