package version

import "fmt"

const (
	major = 0
	minor = 1
	patch = 0
)

// gitCommit is filled in at build time with -ldflags.
var gitCommit string

func Version() string {
	v := fmt.Sprintf("%v.%v.%v", major, minor, patch)
	if gitCommit != "" {
		v = fmt.Sprintf("%v+%v", v, gitCommit)
	}
	return v
}
