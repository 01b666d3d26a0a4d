// pkg/sqlinv/inventory.go

package sqlinv

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/microsoft/go-mssqldb"

	"github.com/briceshort/fleetcheck/pkg/report"
)

// minFreePercent is the volume free-space floor below which a WARN
// finding is raised.
const minFreePercent = 10.0

// Credentials hold the SQL login used across the fleet.
type Credentials struct {
	User     string
	Password string
	Port     int
	Encrypt  bool
}

// VolumeUsage is one disk volume as seen by the SQL Server instance.
type VolumeUsage struct {
	MountPoint     string
	TotalBytes     int64
	AvailableBytes int64
}

// FreePercent returns the free share of the volume.
func (v VolumeUsage) FreePercent() float64 {
	if v.TotalBytes == 0 {
		return 0
	}
	return float64(v.AvailableBytes) / float64(v.TotalBytes) * 100
}

// DatabaseSize is one database's file footprint.
type DatabaseSize struct {
	Name   string
	DataMB int64
	LogMB  int64
}

// ServerInventory is the collected result for one server.
type ServerInventory struct {
	Server    string
	Volumes   []VolumeUsage
	Databases []DatabaseSize
}

// Connect opens a connection to one SQL Server host.
func Connect(host string, creds Credentials) (*sql.DB, error) {
	port := creds.Port
	if port == 0 {
		port = 1433
	}
	encrypt := "disable"
	if creds.Encrypt {
		encrypt = "true"
	}

	dsn := fmt.Sprintf("sqlserver://%s:%s@%s:%d?encrypt=%s",
		url.QueryEscape(creds.User), url.QueryEscape(creds.Password), host, port, encrypt)

	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mssql connection to %s: %w", host, err)
	}
	return db, nil
}

// Collect runs the volume and database size queries against one server.
func Collect(ctx context.Context, server string, db *sql.DB) (*ServerInventory, error) {
	inv := &ServerInventory{Server: server}

	volumes, err := collectVolumes(ctx, db)
	if err != nil {
		return nil, err
	}
	inv.Volumes = volumes

	databases, err := collectDatabases(ctx, db)
	if err != nil {
		return nil, err
	}
	inv.Databases = databases

	return inv, nil
}

func collectVolumes(ctx context.Context, db *sql.DB) ([]VolumeUsage, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT DISTINCT vs.volume_mount_point, vs.total_bytes, vs.available_bytes
		FROM sys.master_files mf
		CROSS APPLY sys.dm_os_volume_stats(mf.database_id, mf.file_id) vs
		ORDER BY vs.volume_mount_point`)
	if err != nil {
		return nil, fmt.Errorf("query volume stats: %w", err)
	}
	defer rows.Close()

	volumes := []VolumeUsage{}
	for rows.Next() {
		var v VolumeUsage
		if err := rows.Scan(&v.MountPoint, &v.TotalBytes, &v.AvailableBytes); err != nil {
			return nil, fmt.Errorf("scan volume row: %w", err)
		}
		volumes = append(volumes, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate volume rows: %w", err)
	}
	return volumes, nil
}

func collectDatabases(ctx context.Context, db *sql.DB) ([]DatabaseSize, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT DB_NAME(database_id),
		       SUM(CASE WHEN type_desc = 'ROWS' THEN CAST(size AS bigint) * 8 / 1024 ELSE 0 END),
		       SUM(CASE WHEN type_desc = 'LOG' THEN CAST(size AS bigint) * 8 / 1024 ELSE 0 END)
		FROM sys.master_files
		GROUP BY database_id
		ORDER BY DB_NAME(database_id)`)
	if err != nil {
		return nil, fmt.Errorf("query database sizes: %w", err)
	}
	defer rows.Close()

	databases := []DatabaseSize{}
	for rows.Next() {
		var d DatabaseSize
		if err := rows.Scan(&d.Name, &d.DataMB, &d.LogMB); err != nil {
			return nil, fmt.Errorf("scan database row: %w", err)
		}
		databases = append(databases, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate database rows: %w", err)
	}
	return databases, nil
}

// Summarize turns one server's inventory into findings: one per volume,
// one aggregate per server for database footprint.
func Summarize(inv *ServerInventory) []report.Finding {
	findings := make([]report.Finding, 0, len(inv.Volumes)+1)

	for _, v := range inv.Volumes {
		free := v.FreePercent()
		if free < minFreePercent {
			findings = append(findings, report.Warn(inv.Server,
				fmt.Sprintf("volume %s has %.1f%% free (%d of %d MB)",
					v.MountPoint, free, v.AvailableBytes/1024/1024, v.TotalBytes/1024/1024),
				"Extend the volume or move database files before it fills up."))
			continue
		}
		findings = append(findings, report.OK(inv.Server,
			fmt.Sprintf("volume %s has %.1f%% free", v.MountPoint, free)))
	}

	var dataMB, logMB int64
	for _, d := range inv.Databases {
		dataMB += d.DataMB
		logMB += d.LogMB
	}
	findings = append(findings, report.OK(inv.Server,
		fmt.Sprintf("%d databases, %d MB data, %d MB log", len(inv.Databases), dataMB, logMB)))

	return findings
}
