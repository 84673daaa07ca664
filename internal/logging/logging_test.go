package logging

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestSetup(t *testing.T) {
	defer logrus.SetLevel(logrus.InfoLevel)

	if err := Setup("debug", "json"); err != nil {
		t.Fatalf("Setup err: %v", err)
	}
	if logrus.GetLevel() != logrus.DebugLevel {
		t.Fatalf("expected debug level, got %s", logrus.GetLevel())
	}
	if _, ok := logrus.StandardLogger().Formatter.(*logrus.JSONFormatter); !ok {
		t.Fatal("expected json formatter")
	}

	if err := Setup("loud", "text"); err == nil {
		t.Fatal("expected error for invalid level")
	}
	if err := Setup("info", "xml"); err == nil {
		t.Fatal("expected error for invalid format")
	}
	_ = Setup("info", "text")
}

func TestForTagsComponent(t *testing.T) {
	entry := For("pipeline")
	if entry.Data["component"] != "pipeline" {
		t.Fatalf("unexpected fields: %v", entry.Data)
	}
}
