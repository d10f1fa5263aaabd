package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	lspDomain "github.com/Strob0t/lspkeeper/internal/domain/lsp"
)

func printStatusTable(w io.Writer, info lspDomain.SessionInfo) {
	rows := [][2]string{
		{"STATE", string(info.State)},
		{"COMMAND", info.Command},
		{"PATH", info.Path},
		{"PID", pidString(info.PID)},
		{"SERVER", info.ServerName},
		{"SESSION", info.SessionID},
	}
	if info.StartedAt != nil {
		rows = append(rows, [2]string{"UPTIME", time.Since(*info.StartedAt).Truncate(time.Second).String()})
	}
	if info.LastError != "" {
		rows = append(rows, [2]string{"LAST ERROR", info.LastError})
	}

	keyW, valW := 0, 0
	for _, r := range rows {
		keyW = max(keyW, len(r[0]))
		valW = max(valW, len(r[1]))
	}

	sep := fmt.Sprintf("+-%s-+-%s-+\n", strings.Repeat("-", keyW), strings.Repeat("-", valW))
	fmt.Fprint(w, sep)
	for _, r := range rows {
		fmt.Fprintf(w, "| %s | %s |\n", pad(r[0], keyW), pad(r[1], valW))
	}
	fmt.Fprint(w, sep)
}

func pidString(pid int) string {
	if pid == 0 {
		return "-"
	}
	return strconv.Itoa(pid)
}

func pad(s string, w int) string {
	if len(s) >= w {
		return s
	}
	return s + strings.Repeat(" ", w-len(s))
}
