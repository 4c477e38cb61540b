package api

import (
	"testing"

	"github.com/slickfs/gateway/engine"
	"github.com/slickfs/gateway/http/mock"
)

func getDummyEngine(t *testing.T, withFiles bool) engine.Engine {
	source := ""
	if withFiles {
		source = mock.DummyFixtures(t, t.TempDir())
	}

	e := mock.DummyEngine(t, source)

	t.Cleanup(func() { e.Close() })

	return e
}
