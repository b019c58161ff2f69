package main

import (
	"github.com/lyrisync/lyrisync/cmd"
)

func main() {
	cmd.Execute()
}
