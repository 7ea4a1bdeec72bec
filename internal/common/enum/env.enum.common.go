package enum

import "github.com/gin-gonic/gin"

// EnvEnum is APP_ENV. Local and development runs may omit secrets and get
// gin's debug output; staging and production may not.
type EnvEnum string

const (
	LOCAL       EnvEnum = "local"
	DEVELOPMENT EnvEnum = "development"
	STAGING     EnvEnum = "staging"
	PRODUCTION  EnvEnum = "production"
)

func (e EnvEnum) ToString() string {
	if !e.IsValid() {
		return ""
	}
	return string(e)
}

func (e EnvEnum) IsValid() bool {
	switch e {
	case LOCAL, DEVELOPMENT, STAGING, PRODUCTION:
		return true
	}
	return false
}

// IsDeployed reports whether the service runs against shared backends.
func (e EnvEnum) IsDeployed() bool {
	return e == STAGING || e == PRODUCTION
}

func (e EnvEnum) GinMode() string {
	if e.IsDeployed() {
		return gin.ReleaseMode
	}
	return gin.DebugMode
}
