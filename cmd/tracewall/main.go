// tracewall: provenance-checked gate between untrusted text and trusted
// execution surfaces.
package main

import "github.com/tracewall/tracewall/internal/cli"

func main() {
	cli.Execute()
}
