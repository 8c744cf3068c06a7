package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// RetentionPolicy defines how many backups to keep per age tier. Tiers are
// by age: hourly (<24h), daily (1-7d), weekly (7-30d), monthly (30-365d).
// Backups older than a year are always removed.
type RetentionPolicy struct {
	Hourly  int // default 24
	Daily   int // default 7
	Weekly  int // default 4
	Monthly int // default 12
}

func (p *RetentionPolicy) applyDefaults() {
	if p.Hourly == 0 {
		p.Hourly = 24
	}
	if p.Daily == 0 {
		p.Daily = 7
	}
	if p.Weekly == 0 {
		p.Weekly = 4
	}
	if p.Monthly == 0 {
		p.Monthly = 12
	}
}

// backupInfo is one backup file with its metadata.
type backupInfo struct {
	path      string
	timestamp time.Time
	size      int64
}

// listBackups lists the .db files in the backup directory, newest first.
func listBackups(dir string) ([]backupInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("backup: failed to read backup directory: %w", err)
	}

	var backups []backupInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".db") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, backupInfo{
			path:      filepath.Join(dir, entry.Name()),
			timestamp: info.ModTime(),
			size:      info.Size(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].timestamp.After(backups[j].timestamp)
	})
	return backups, nil
}

// applyRetention removes backups beyond each tier's keep count.
func applyRetention(dir string, policy RetentionPolicy) error {
	backups, err := listBackups(dir)
	if err != nil {
		return err
	}

	now := time.Now()
	var toDelete []string
	var hourly, daily, weekly, monthly []backupInfo

	for _, b := range backups {
		age := now.Sub(b.timestamp)
		switch {
		case age < 24*time.Hour:
			hourly = append(hourly, b)
		case age < 7*24*time.Hour:
			daily = append(daily, b)
		case age < 30*24*time.Hour:
			weekly = append(weekly, b)
		case age < 365*24*time.Hour:
			monthly = append(monthly, b)
		default:
			toDelete = append(toDelete, b.path)
		}
	}

	for _, tier := range []struct {
		backups []backupInfo
		keep    int
	}{
		{hourly, policy.Hourly},
		{daily, policy.Daily},
		{weekly, policy.Weekly},
		{monthly, policy.Monthly},
	} {
		if len(tier.backups) > tier.keep {
			for _, b := range tier.backups[tier.keep:] {
				toDelete = append(toDelete, b.path)
			}
		}
	}

	var lastErr error
	for _, path := range toDelete {
		if err := os.Remove(path); err != nil {
			// Keep sweeping; report the last failure.
			lastErr = err
		}
	}
	if lastErr != nil {
		return fmt.Errorf("backup: failed to delete some backups: %w", lastErr)
	}
	return nil
}
