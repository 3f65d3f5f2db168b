package cli

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mmss-network/mmss/internal/daemon"
)

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Output file (default: stdout)")
	exportCmd.Flags().IntVar(&exportLimit, "limit", 0, "Maximum snapshot rows (0 = all)")
	rootCmd.AddCommand(exportCmd)
}

var (
	exportOut   string
	exportLimit int
)

var exportCmd = &cobra.Command{
	Use:   "export [snapshots|tasks]",
	Short: "Export persisted history as CSV",
	Long:  `Export the persisted metrics snapshots or task records as CSV, newest first.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	what := "snapshots"
	if len(args) == 1 {
		what = args[0]
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	if d.DB == nil {
		return fmt.Errorf("persistence is disabled; nothing to export")
	}

	out := os.Stdout
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	w := csv.NewWriter(out)
	defer w.Flush()

	switch what {
	case "snapshots":
		return exportSnapshots(d, w)
	case "tasks":
		return exportTasks(d, w)
	default:
		return fmt.Errorf("unknown export target %q (want snapshots or tasks)", what)
	}
}

func exportSnapshots(d *daemon.Daemon, w *csv.Writer) error {
	records, err := d.DB.ListSnapshots(exportLimit)
	if err != nil {
		return err
	}

	header := []string{
		"id", "created_at",
		"v_geometric", "s_geometric", "q_oscillator",
		"quaternion_coherence", "emergent_electron_mass",
		"fine_structure_constant", "zitterbewegung_entropy",
		"topological_winding",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, rec := range records {
		m := rec.Metrics
		row := []string{
			strconv.FormatInt(rec.ID, 10),
			rec.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			formatFloat(m.VGeometric),
			formatFloat(m.SGeometric),
			formatFloat(m.QOscillator),
			formatFloat(m.QuaternionCoherence),
			formatFloat(m.EmergentElectronMass),
			formatFloat(m.FineStructureConstant),
			formatFloat(m.ZitterbewegungEntropy),
			formatFloat(m.TopologicalWinding),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func exportTasks(d *daemon.Daemon, w *csv.Writer) error {
	records, err := d.DB.ListTasks()
	if err != nil {
		return err
	}

	if err := w.Write([]string{"id", "name", "operator", "target_module", "state", "error", "created_at", "updated_at"}); err != nil {
		return err
	}
	for _, rec := range records {
		row := []string{
			rec.ID.String(),
			rec.Name,
			string(rec.Operator),
			rec.TargetModule,
			string(rec.State),
			rec.Error,
			rec.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			rec.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
