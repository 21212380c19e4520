// Copyright © 2018 One Concern

package main

import (
	"github.com/oneconcern/yap/cmd/yap/cmd"
)

func main() {
	cmd.Execute()
}
