package enum

import (
	"testing"

	"github.com/gin-gonic/gin"
)

func TestEnvDeployment(t *testing.T) {
	for _, e := range []EnvEnum{STAGING, PRODUCTION} {
		if !e.IsDeployed() || e.GinMode() != gin.ReleaseMode {
			t.Fatalf("%s must run as a deployed release", e)
		}
	}
	for _, e := range []EnvEnum{LOCAL, DEVELOPMENT} {
		if e.IsDeployed() || e.GinMode() != gin.DebugMode {
			t.Fatalf("%s must run in debug mode", e)
		}
	}
	if EnvEnum("prod").IsValid() || EnvEnum("prod").ToString() != "" {
		t.Fatalf("unknown env accepted")
	}
}
