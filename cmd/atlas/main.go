// Command atlas manages a resource directory catalog.
package main

import "github.com/mesh-intelligence/atlas/internal/cli"

func main() {
	cli.Execute()
}
