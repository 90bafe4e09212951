/*
flag Package set up cli flags shared across services

Usage:

	Flags listed in this package are shared across boundaries and service-agnostic
	For service dependent flags please define in their respective package
*/

package flag

import (
	"flag"
)

const (
	APIServer = "api_server"
)

var (
	IsDevelopment bool
	ServiceName   string
	ByPassAuth    bool
)

func init() {
	flag.BoolVar(&IsDevelopment, "dev", true, "set to true if the current run is for development. default value is true")
	flag.StringVar(&ServiceName, "service", APIServer, "name of the running service, used in log fields")
	flag.BoolVar(&ByPassAuth, "no_auth", false, "skip the subject header requirement, local development only")
}

// ParseFlags must be called once from the service's main before any flag
// value is read. Parsing cannot happen at package init time: the testing
// package registers its -test.* flags after init runs, so an init-time
// Parse aborts every test binary that links this package.
func ParseFlags() {
	flag.Parse()
}
