// Command adhocsim runs the wifi distance experiment on a grid of ad-hoc
// nodes and writes its statistics.
package main

import "github.com/sarchlab/adhocsim/cmd/adhocsim/cmd"

func main() {
	cmd.Execute()
}
