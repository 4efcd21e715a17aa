package main

import "github.com/oshokin/alarm-history/cmd/alarm-history-server/cmd"

func main() {
	cmd.Execute()
}
