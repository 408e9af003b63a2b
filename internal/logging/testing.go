package logging

import (
	"regexp"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// NewTestLogger creates an observer-backed logger for tests. The returned
// ObservedLogs captures every entry at Debug and above.
func NewTestLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, observed := observer.New(zapcore.DebugLevel)
	return zap.New(core), observed
}

// AssertLogged verifies an entry at level containing msgContains was logged.
func AssertLogged(tb testing.TB, logs *observer.ObservedLogs, level zapcore.Level, msgContains string) {
	tb.Helper()
	for _, entry := range logs.All() {
		if entry.Level == level && strings.Contains(entry.Message, msgContains) {
			return
		}
	}
	tb.Errorf("expected log at %v containing %q, logs: %+v", level, msgContains, logs.All())
}

// AssertNoSecrets verifies no sensitive data leaked into the captured logs.
// The checks mirror the default redaction rules.
func AssertNoSecrets(tb testing.TB, logs *observer.ObservedLogs) {
	tb.Helper()
	sensitiveKeys := []string{"password", "secret", "token", "api_key", "authorization", "bearer", "credential", "private_key"}
	sensitivePatterns := []*regexp.Regexp{
		regexp.MustCompile(`(?i)bearer\s+\S+`),
		regexp.MustCompile(`(?i)api[_-]?key[=:]\s*\S+`),
		regexp.MustCompile(`\bsk-[A-Za-z0-9-_]{8,}\b`),
	}

	for _, entry := range logs.All() {
		for _, re := range sensitivePatterns {
			if re.MatchString(entry.Message) {
				tb.Errorf("sensitive pattern in message: %q", entry.Message)
			}
		}

		for _, field := range entry.Context {
			keyLower := strings.ToLower(field.Key)
			for _, sensitive := range sensitiveKeys {
				if strings.Contains(keyLower, sensitive) && field.Type == zapcore.StringType {
					if !strings.Contains(field.String, "[REDACTED") && field.String != "" {
						tb.Errorf("sensitive field %q not redacted: %q", field.Key, field.String)
					}
				}
			}

			if field.Type == zapcore.StringType {
				for _, re := range sensitivePatterns {
					if re.MatchString(field.String) {
						tb.Errorf("sensitive pattern in field %q: %q", field.Key, field.String)
					}
				}
			}
		}
	}
}
