// pkg/sqlinv/csv.go

package sqlinv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

// WriteCSV renders the collected inventories as CSV. One row per volume
// and one per database, keyed by server.
func WriteCSV(w io.Writer, inventories []*ServerInventory) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"server", "kind", "name", "size_mb", "free_mb"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, inv := range inventories {
		for _, v := range inv.Volumes {
			row := []string{
				inv.Server,
				"volume",
				v.MountPoint,
				strconv.FormatInt(v.TotalBytes/1024/1024, 10),
				strconv.FormatInt(v.AvailableBytes/1024/1024, 10),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write volume row: %w", err)
			}
		}
		for _, d := range inv.Databases {
			row := []string{
				inv.Server,
				"database",
				d.Name,
				strconv.FormatInt(d.DataMB+d.LogMB, 10),
				"",
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write database row: %w", err)
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the inventories to a CSV file, creating parent
// directories as needed.
func WriteCSVFile(path string, inventories []*ServerInventory) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	return WriteCSV(f, inventories)
}
