/*
*	Logging setup shared by the qi daemon and libraries. The libraries
*	log through the *logging.Logger their caller passes in; qid passes
*	its own "qid" logger to the directory, session and channel layers.
*	Logger returns a named module logger, and QI_LOG_LEVEL can tune
*	modules individually:
*
*		QI_LOG_LEVEL="NOTICE,channel=DEBUG,session=INFO"
*
*	A bare level applies to every module; module=LEVEL entries override
*	it per package.
 */
package log

import (
	"log/syslog"
	"os"
	"strings"

	"github.com/op/go-logging"
)

var stderrFormat = logging.MustStringFormatter(
	`%{color}%{time:15:04:05.000} %{level:.4s} %{module} ▶ %{message}%{color:reset}`,
)

// syslog stamps its own time; keep only the level and module.
var syslogFormat = logging.MustStringFormatter(
	`%{level:.4s} %{module} ▶ %{message}`,
)

// Logger returns the named logger a package logs through.
func Logger(module string) *logging.Logger {
	return logging.MustGetLogger(module)
}

// Setup wires the process-wide backend: syslog when requested and
// available, stderr otherwise, with per-module levels from
// QI_LOG_LEVEL on top of the given default.
func Setup(prefix string, defaultLevel logging.Level, trySyslog bool) *logging.Logger {
	var leveled logging.LeveledBackend
	if trySyslog {
		if backend, err := logging.NewSyslogBackendPriority(prefix, syslog.LOG_NOTICE); err == nil {
			leveled = logging.AddModuleLevel(logging.NewBackendFormatter(backend, syslogFormat))
		}
	}
	if leveled == nil {
		backend := logging.NewLogBackend(os.Stderr, "", 0)
		leveled = logging.AddModuleLevel(logging.NewBackendFormatter(backend, stderrFormat))
	}
	leveled.SetLevel(defaultLevel, "")
	for module, level := range parseLevels(os.Getenv("QI_LOG_LEVEL")) {
		leveled.SetLevel(level, module)
	}
	logging.SetBackend(leveled)
	return Logger(prefix)
}

// parseLevels reads a "LEVEL,module=LEVEL,…" spec. Unknown level
// names are skipped rather than failing startup.
func parseLevels(spec string) map[string]logging.Level {
	levels := map[string]logging.Level{}
	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		module, name := "", entry
		if idx := strings.Index(entry, "="); idx >= 0 {
			module, name = strings.TrimSpace(entry[:idx]), strings.TrimSpace(entry[idx+1:])
		}
		level, err := logging.LogLevel(name)
		if err != nil {
			continue
		}
		levels[module] = level
	}
	return levels
}
