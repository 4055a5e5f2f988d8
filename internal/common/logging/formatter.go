package logging

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// CommandLineFormatter writes one line per entry: the message followed by any fields as key=value pairs,
// sorted by key. Warnings and errors are prefixed with their level.
type CommandLineFormatter struct{}

func (f *CommandLineFormatter) Format(entry *log.Entry) ([]byte, error) {
	var sb strings.Builder
	if entry.Level <= log.WarnLevel {
		sb.WriteString(strings.ToUpper(entry.Level.String()))
		sb.WriteString(": ")
	}
	sb.WriteString(entry.Message)
	keys := maps.Keys(entry.Data)
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=%v", k, entry.Data[k])
	}
	sb.WriteByte('\n')
	return []byte(sb.String()), nil
}
