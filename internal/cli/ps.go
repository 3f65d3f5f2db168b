package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mmss-network/mmss/internal/daemon"
)

func init() {
	rootCmd.AddCommand(psCmd)
}

var psCmd = &cobra.Command{
	Use:   "ps",
	Short: "List persisted tasks and their states",
	RunE:  runPs,
}

func runPs(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	if d.DB == nil {
		fmt.Println("Persistence is disabled; no task history available.")
		return nil
	}

	records, err := d.DB.ListTasks()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No tasks recorded.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tOPERATOR\tSTATE\tUPDATED")
	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			rec.ID,
			rec.Name,
			rec.Operator,
			rec.State,
			rec.UpdatedAt.Format("2006-01-02 15:04:05"),
		)
	}
	return w.Flush()
}
