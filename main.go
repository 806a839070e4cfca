package main

import "github.com/Vetrovec/chainee/cli"

func main() {
	cmd := cli.CommandLine{}
	cmd.Run()
}
