// Package config parses cmd/sssp-host's command-line surface into a
// HostConfig, using github.com/spf13/cobra: NewRootCommand binds each flag
// to a variable local to that call and collects them into a typed struct
// once parsing completes.
package config
