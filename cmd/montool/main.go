// Command montool is a diagnostic for monitoring regions: it attaches to
// a database's region file and prints the decoded element stream, the
// moral equivalent of etcdctl's --write-out dumps. It writes no element
// data and never authenticates. It maps the region through region.Map,
// which creates and stamps the file if it does not exist yet, and taking
// the region lock increments the header's lock-generation counter.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "montool",
	Short: "Inspect database monitoring regions",
}

func init() {
	rootCmd.AddCommand(dumpCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}
}
