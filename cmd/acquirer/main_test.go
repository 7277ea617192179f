// cmd/acquirer/main_test.go
package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/tamzrod/loadcell-acquirer/internal/config"
)

func TestSetupLogger_Output(t *testing.T) {
	cases := []struct {
		output string
		want   *os.File
	}{
		{"", os.Stdout},
		{"stdout", os.Stdout},
		{"stderr", os.Stderr},
	}

	for _, c := range cases {
		log := setupLogger(config.LogConfig{Level: "info", Output: c.output})
		if log.Out != c.want {
			t.Fatalf("output %q: got %v", c.output, log.Out)
		}
	}
}

func TestSetupLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "acquirer.log")

	log := setupLogger(config.LogConfig{Level: "debug", Format: "json", Output: "file", FilePath: path})
	if log.GetLevel() != logrus.DebugLevel {
		t.Fatalf("level: got %v", log.GetLevel())
	}
	if _, ok := log.Formatter.(*logrus.JSONFormatter); !ok {
		t.Fatalf("formatter: got %T", log.Formatter)
	}

	log.Info("hello")
	if f, ok := log.Out.(*os.File); ok {
		_ = f.Close()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Fatalf("log file content: %q", data)
	}
}
