package monitor

import (
	"fmt"
	"strings"
	"time"

	"github.com/ragos-nas/webadmin/common/command"
)

const (
	smbstatusCmd     = "smbstatus"
	smbstatusTimeout = 10 * time.Second
)

// SMBSession is one connected file-sharing client.
type SMBSession struct {
	PID      string `json:"pid"`
	Username string `json:"username"`
	Group    string `json:"group"`
	Machine  string `json:"machine"`
	Protocol string `json:"protocol"`
}

// SMBSessions lists the currently connected clients.
func SMBSessions(runner command.Runner) ([]SMBSession, error) {
	res, err := runner.Run(smbstatusCmd, []string{"--brief"}, command.Options{Timeout: smbstatusTimeout})
	if err != nil {
		return nil, fmt.Errorf("list smb sessions: %w", err)
	}
	if res.Failed() {
		return nil, &command.ToolError{Op: "list smb sessions", Stderr: res.Stderr}
	}
	return parseSMBSessions(res.Stdout), nil
}

// parseSMBSessions reads the session table. Rows start after the dashed
// separator; the machine column can contain spaces, so the address is
// located by its parenthesised form and the protocol by its SMB prefix.
//
//	PID     Username     Group         Machine                            Protocol Version
//	------------------------------------------------------------------------------------
//	1234    alice        domain users  10.0.3.55 (ipv4:10.0.3.55:49152)   SMB3_11
func parseSMBSessions(text string) []SMBSession {
	sessions := []SMBSession{}
	inTable := false

	for line := range strings.SplitSeq(text, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "----") {
			inTable = true
			continue
		}
		if !inTable || line == "" {
			continue
		}

		parts := strings.Fields(line)
		if len(parts) < 4 || !isDigits(parts[0]) {
			continue
		}

		s := SMBSession{PID: parts[0], Username: parts[1], Group: parts[2]}
		for _, tok := range parts[3:] {
			switch {
			case strings.HasPrefix(tok, "(ipv"):
				s.Machine = strings.Trim(tok, "()")
			case strings.HasPrefix(tok, "SMB"):
				s.Protocol = tok
			}
		}
		sessions = append(sessions, s)
	}
	return sessions
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
