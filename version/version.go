// Package version has the build version and the kong version command.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// VERSION has the current software version (set in the build process)
var VERSION string
var buildTime string
var gitVersion string

func init() {
	if len(gitVersion) > 0 {
		VERSION = VERSION + "/" + gitVersion
	}
	if len(VERSION) == 0 {
		VERSION = "dev-snapshot"
	}
}

// Info is the version information included in status messages.
type Info struct {
	Version   string `json:"version"`
	GitRev    string `json:"git_rev,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
	GoVersion string `json:"go_version"`
}

var (
	once sync.Once
	info Info
	v    string
)

func load() {
	info = Info{
		Version:   VERSION,
		BuildTime: buildTime,
		GoVersion: runtime.Version(),
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				info.GitRev = s.Value
			}
		}
	}

	extra := []string{}
	if len(buildTime) > 0 {
		extra = append(extra, buildTime)
	}
	extra = append(extra, runtime.Version())
	v = fmt.Sprintf("%s (%s)", VERSION, strings.Join(extra, ", "))
}

// Version returns the version string with build details.
func Version() string {
	once.Do(load)
	return v
}

func VersionInfo() Info {
	once.Do(load)
	return info
}

// RegisterMetric adds a build_info gauge for the named program.
func RegisterMetric(name string, reg prometheus.Registerer) {
	once.Do(load)
	g := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "build_info",
		Help: "Build information",
		ConstLabels: prometheus.Labels{
			"program": name,
		},
	}, []string{"version", "goversion", "revision"})
	reg.MustRegister(g)
	g.WithLabelValues(info.Version, info.GoVersion, info.GitRev).Set(1)
}

// Cmd is the "version" subcommand.
type Cmd struct {
	Name string `kong:"-"`
}

func (cmd *Cmd) Run() error {
	fmt.Printf("%s %s\n", cmd.Name, Version())
	return nil
}
