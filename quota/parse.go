package quota

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseError means tool output did not match the expected shape on a path
// where no meaningful default exists.
type ParseError struct {
	What   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %s", e.What, e.Reason)
}

// Quota tools report in 1K blocks; limits are managed in whole MB.
// MB→KB is exact, KB→MB floors, so MB→KB→MB round-trips exactly.
func kbToMB(kb int64) int64 { return kb / 1024 }
func mbToKB(mb int64) int64 { return mb * 1024 }

func parseKB(tok string) int64 {
	// repquota prints "0" for unset limits but the used column can carry a
	// trailing marker on some versions; anything non-numeric counts as 0.
	n, err := strconv.ParseInt(tok, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func isNumeric(tok string) bool {
	_, err := strconv.ParseInt(tok, 10, 64)
	return err == nil
}

// ParseQuotaShow extracts one user's quota from `quota -u <user> -w -p`
// output. The data line is the one naming the filesystem (or any /dev/
// device); columns after the device are used/soft/hard in KB, then the grace
// column. No matching line yields the zero Record.
//
//	Disk quotas for user testuser (uid 10000):
//	    Filesystem   blocks   quota   limit   grace   files   quota   limit   grace
//	    /dev/sda1     12345   51200  102400            100       0       0
func ParseQuotaShow(text, filesystemHint string) Record {
	for line := range strings.SplitSeq(text, "\n") {
		if !strings.Contains(line, filesystemHint) && !strings.Contains(line, "/dev/") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 4 {
			continue
		}
		used, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			continue
		}

		rec := Record{
			UsedMB:      kbToMB(used),
			SoftLimitMB: kbToMB(parseKB(parts[2])),
			HardLimitMB: kbToMB(parseKB(parts[3])),
		}
		// Whatever occupies the grace slot is carried verbatim; only the
		// literal column header is excluded. Grace is opaque display data.
		if len(parts) > 4 && parts[4] != "files" {
			rec.Grace = parts[4]
		}
		return rec
	}
	return Record{}
}

// ParseQuotaReport parses `repquota -u <filesystem>` output into one Record
// per configured user. Banner, header and separator lines are skipped, as is
// any line that does not look like a data row; a malformed row never aborts
// the report. root, nobody and rows with no limits at all are excluded: those
// are system or unconfigured accounts, not quotas.
//
//	*** Report for user quotas on device /dev/sda1
//	Block grace time: 7days; Inode grace time: 7days
//	                        Block limits                File limits
//	User            used    soft    hard  grace    used  soft  hard  grace
//	----------------------------------------------------------------------
//	root      --  123456       0       0          12345     0     0
//	testuser  --   45678   51200  102400            123     0     0
func ParseQuotaReport(text string) []Record {
	records := []Record{}
	inTable := false

	for line := range strings.SplitSeq(text, "\n") {
		line = strings.TrimSpace(line)

		if line == "" || strings.HasPrefix(line, "***") || strings.HasPrefix(line, "Block grace") {
			continue
		}
		if strings.Contains(line, "Block limits") || strings.Contains(line, "User") {
			inTable = true
			continue
		}
		if strings.HasPrefix(line, "---") {
			continue
		}
		if !inTable {
			continue
		}

		parts := strings.Fields(line)
		if len(parts) < 7 {
			continue
		}

		username := parts[0]
		soft := parseKB(parts[3])
		hard := parseKB(parts[4])
		if username == "root" || username == "nobody" || (soft == 0 && hard == 0) {
			continue
		}

		rec := Record{
			Username:    username,
			UsedMB:      kbToMB(parseKB(parts[2])),
			SoftLimitMB: kbToMB(soft),
			HardLimitMB: kbToMB(hard),
		}
		if !isNumeric(parts[5]) {
			rec.Grace = parts[5]
		}
		records = append(records, rec)
	}
	return records
}

// ParseFilesystemUsage parses the second line of a `df -h <path>` report.
//
//	Filesystem      Size  Used Avail Use% Mounted on
//	/dev/sdb1       500G  120G  381G  24% /mnt/ragostorage
func ParseFilesystemUsage(text, fallbackMount string) (FilesystemUsage, error) {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) < 2 {
		return FilesystemUsage{}, &ParseError{What: "filesystem usage", Reason: "expected header and data line"}
	}

	parts := strings.Fields(lines[1])
	if len(parts) < 5 {
		return FilesystemUsage{}, &ParseError{What: "filesystem usage", Reason: fmt.Sprintf("expected 5-6 fields, got %d", len(parts))}
	}

	usage := FilesystemUsage{
		Filesystem: parts[0],
		Size:       parts[1],
		Used:       parts[2],
		Available:  parts[3],
		Percentage: parts[4],
		Mountpoint: fallbackMount,
	}
	if len(parts) > 5 {
		usage.Mountpoint = parts[5]
	}
	return usage, nil
}
