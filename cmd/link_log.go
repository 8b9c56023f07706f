// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"log"

	"github.com/Thermoquad/rover/pkg/motorlink"
	"github.com/spf13/cobra"
)

var linkLogValidate bool

var linkLogCmd = &cobra.Command{
	Use:   "link_log",
	Short: "Display motor-link frames in human-readable format",
	Long: `Continuously decode and display motor-link frames on --motor-port.

Attach this to the bridge side of the motor UART (or a tap on it) to see
each SET_SPEED, RUN and RELEASE_ALL frame with its timestamp, channel and
decoded payload. With --validate, protocol violations are reported too.`,
	RunE: runLinkLog,
}

func init() {
	rootCmd.AddCommand(linkLogCmd)
	linkLogCmd.Flags().BoolVar(&linkLogValidate, "validate", true, "Report protocol violations")
}

func runLinkLog(cmd *cobra.Command, args []string) error {
	if motorPort == "" {
		return errors.New("--motor-port must be specified")
	}

	conn, err := OpenSerialConnection(motorPort, motorBaud)
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("Rover - Motor Link Log\n")
	fmt.Printf("Connection: %s\n", conn)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	decoder := motorlink.NewDecoder()
	buf := make([]byte, 128)

	for {
		n, err := conn.Read(buf)
		if err != nil {
			log.Printf("Read error: %v", err)
			return err
		}

		for i := 0; i < n; i++ {
			packet, err := decoder.DecodeByte(buf[i])
			if err != nil {
				fmt.Printf("[ERROR] %v\n", err)
				continue
			}
			if packet == nil {
				continue
			}
			fmt.Print(motorlink.FormatPacket(packet))
			if linkLogValidate {
				for _, v := range motorlink.ValidatePacket(packet) {
					fmt.Printf("  [INVALID] %s\n", v.Message)
				}
			}
		}
	}
}
