// Command dndb manages characters, items and campaigns from the shell.
package main

import "github.com/mesh-intelligence/dndb/internal/cli"

func main() {
	cli.Execute()
}
