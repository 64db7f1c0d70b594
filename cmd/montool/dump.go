package main

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/dbengine/dbmonitor/internal/dump"
	"github.com/dbengine/dbmonitor/internal/engine"
	"github.com/dbengine/dbmonitor/internal/region"
	"github.com/dbengine/dbmonitor/internal/store"
)

var dumpCmdArgs struct {
	Dir      string
	Database string
}

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print every element currently published to a database's monitoring region",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runDump(); err != nil {
			fmt.Printf("ERROR: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	dumpCmd.Flags().StringVarP(&dumpCmdArgs.Dir, "dir", "d", "", "Directory holding the database's region file (required)")
	dumpCmd.Flags().StringVarP(&dumpCmdArgs.Database, "database", "b", "", "Database file identifier (required)")
	dumpCmd.MarkFlagRequired("dir")
	dumpCmd.MarkFlagRequired("database")
}

func runDump() error {
	cfg := region.DefaultConfig()
	cfg.Dir = dumpCmdArgs.Dir

	r, err := region.Map(cfg, dumpCmdArgs.Database)
	if err != nil {
		return fmt.Errorf("map region: %w", err)
	}
	defer r.Unmap()

	unlock, err := r.Lock(context.Background())
	if err != nil {
		return fmt.Errorf("lock region: %w", err)
	}
	defer unlock()

	elements, err := store.ListElements(r)
	if err != nil {
		return fmt.Errorf("list elements: %w", err)
	}

	fmt.Printf("region %s: used %s of %s allocated, %d element(s)\n\n",
		dumpCmdArgs.Database,
		humanize.IBytes(uint64(r.Used())),
		humanize.IBytes(uint64(r.Allocated())),
		len(elements))

	for _, e := range elements {
		fmt.Printf("== element offset=%d pid=%d local_id=%d size=%s ==\n",
			e.Offset, e.ProcessID, e.LocalID, humanize.IBytes(uint64(len(e.Payload))))
		if err := printRecords(e.Payload); err != nil {
			return fmt.Errorf("decode element at offset %d: %w", e.Offset, err)
		}
		fmt.Println()
	}
	return nil
}

// printRecords walks one element's payload and prints every record and
// field it contains, in the order the stream holds them.
func printRecords(payload []byte) error {
	d := dump.NewDecoder(payload)
	for {
		relID, ok, err := d.NextRecord()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		fmt.Printf("  %s\n", engine.RelationID(relID).String())
		for {
			field, ok, err := d.NextField()
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			fmt.Printf("    field=%d type=%s value=%s\n", field.FieldID, field.Type, formatValue(field))
		}
	}
}

func formatValue(f dump.DumpField) string {
	switch f.Type {
	case dump.TypeInteger:
		v, err := f.Int64()
		if err != nil {
			return fmt.Sprintf("<%v>", err)
		}
		return fmt.Sprintf("%d", v)
	case dump.TypeGlobalID:
		v, err := f.Int64()
		if err != nil {
			return fmt.Sprintf("<%v>", err)
		}
		return engine.GlobalID(v).String()
	case dump.TypeTimestamp:
		if len(f.Payload) == 8 {
			return fmt.Sprintf("0x%016x", binary.BigEndian.Uint64(f.Payload))
		}
		return hex.EncodeToString(f.Payload)
	case dump.TypeString:
		return fmt.Sprintf("%q", f.Text())
	default:
		return hex.EncodeToString(f.Payload)
	}
}
