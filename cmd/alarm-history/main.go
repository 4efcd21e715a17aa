package main

import "github.com/oshokin/alarm-history/cmd/alarm-history/cmd"

func main() {
	cmd.Execute()
}
