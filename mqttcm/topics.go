package mqttcm

import (
	"fmt"

	"go.ntppool.org/common/config/depenv"
)

// Topics names the MQTT topics of one deployment environment.
type Topics struct {
	e depenv.DeploymentEnvironment
}

func NewTopics(depEnv depenv.DeploymentEnvironment) *Topics {
	return &Topics{e: depEnv}
}

func (t *Topics) prefix() string {
	return fmt.Sprintf("/%s/diamond", t.e)
}

// Cuts carries the latest committed record, retained.
func (t *Topics) Cuts() string {
	return t.prefix() + "/cuts"
}

// Status carries the registry daemon online status, retained.
func (t *Topics) Status() string {
	return t.prefix() + "/status"
}
