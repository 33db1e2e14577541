// floatchat is a floating, draggable chat widget for the terminal.
package main

import (
	"github.com/linanwx/floatchat/cmd"
	"github.com/linanwx/floatchat/logger"
)

func main() {
	defer logger.Close()
	cmd.Execute()
}
