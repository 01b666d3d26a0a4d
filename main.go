// main.go
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/briceshort/fleetcheck/cmd"
)

func main() {
	startTime := time.Now()

	printBanner()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	elapsedTime := time.Since(startTime)
	fmt.Printf("\nTotal execution time: %s\n", elapsedTime)
}

func printBanner() {
	banner := `
 _____ _     _____ _____ _____ ____ _   _ _____ ____ _  __
|  ___| |   | ____| ____|_   _/ ___| | | | ____/ ___| |/ /
| |_  | |   |  _| |  _|   | || |   | |_| |  _|| |   | ' /
|  _| | |___| |___| |___  | || |___|  _  | |__| |___| . \
|_|   |_____|_____|_____| |_| \____|_| |_|_____\____|_|\_\

 Fleet operator toolkit
 Started at: %s
`
	fmt.Printf(banner, time.Now().Format("2006-01-02 15:04:05"))
}
