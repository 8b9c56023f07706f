// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"github.com/spf13/cobra"
)

var (
	// Radio bridge flags
	radioPort string
	radioBaud int

	// WebSocket radio bridge flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Motor shield bridge flags
	motorPort string
	motorBaud int

	// Console flags
	consolePort string
	consoleBaud int

	// Diagnostics
	logFile string
)

var rootCmd = &cobra.Command{
	Use:   "rover",
	Short: "Two-motor RC vehicle direction controller",
	Long: `Rover - drive a two-motor RC vehicle from single-byte commands.

Commands 1-5 (Forward, Backward, Left, Right, Stop) arrive over a wireless
bridge and are applied to the right and left motors every loop iteration.
A serial console echoes typed commands and prints diagnostics.

Wireless bridge:
  Serial:    --radio-port /dev/ttyUSB0 [--radio-baud 9600]
  WebSocket: --url ws://host/path [--username user]

Motor shield bridge:
  --motor-port /dev/ttyACM0 [--motor-baud 115200]
  Without --motor-port the motors are simulated.

Console:
  stdin (raw mode) by default, or --console-port /dev/ttyS0 [--console-baud 9600]

For WebSocket authentication, the password is read from the ROVER_PASSWORD
environment variable, or prompted interactively if not set.`,
	Version:      "1.0.0",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&radioPort, "radio-port", "r", "", "Serial port of the radio bridge")
	rootCmd.PersistentFlags().IntVar(&radioBaud, "radio-baud", 9600, "Baud rate of the radio bridge")

	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL of the radio bridge (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	rootCmd.PersistentFlags().StringVarP(&motorPort, "motor-port", "m", "", "Serial port of the motor shield bridge")
	rootCmd.PersistentFlags().IntVar(&motorBaud, "motor-baud", 115200, "Baud rate of the motor shield bridge")

	rootCmd.PersistentFlags().StringVar(&consolePort, "console-port", "", "Serial port used as console instead of stdin")
	rootCmd.PersistentFlags().IntVar(&consoleBaud, "console-baud", 9600, "Baud rate of the console port")

	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write diagnostics to this rotating log file")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
