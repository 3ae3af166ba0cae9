package main

import (
	"os"
)

func main() {
	root, c := newRootCmd()
	err := root.Execute()
	c.close()
	if err != nil {
		os.Exit(1)
	}
}
