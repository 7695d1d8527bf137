package main

import (
	"github.com/luma/tsq/cmd"
)

func main() {
	cmd.Execute()
}
