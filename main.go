package main

import (
	"github.com/ragos-nas/webadmin/webserver/cmd"
)

func main() {
	cmd.StartWebAdmin()
}
