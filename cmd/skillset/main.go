package main

import (
	"github.com/skillset/skillset/pkg/cmd"
)

func main() {
	cmd.Execute()
}
