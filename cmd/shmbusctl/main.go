// Copyright (c) 2024 Contributors to the Eclipse Foundation
//
// See the NOTICE file(s) distributed with this work for additional
// information regarding copyright ownership.
//
// This program and the accompanying materials are made available under the
// terms of the Apache Software License 2.0 which is available at
// https://www.apache.org/licenses/LICENSE-2.0, or the MIT license
// which is available at https://opensource.org/licenses/MIT.
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Command shmbusctl inspects and cleans up a shmbus deployment's
// filesystem state: discoverable services, live/dead nodes, and stale
// resources left behind by processes that died without closing their
// ports (spec.md §4.6).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shmbus/shmbus/pkg/shmbus"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "shmbusctl",
	Short: "Inspect and clean up a shmbus zero-copy IPC deployment",
}

func init() {
	rootCmd.PersistentFlags().String("root", "", "Deployment root path (defaults to $SHMBUS_ROOT or the OS temp dir)")
	rootCmd.PersistentFlags().String("prefix", "", "Isolation prefix / domain (defaults to \"shmbus\")")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(describeCmd)
	rootCmd.AddCommand(nodesCmd)
	rootCmd.AddCommand(rmStaleCmd)
}

func configFromFlags(cmd *cobra.Command) shmbus.Config {
	cfg := shmbus.GlobalConfig()
	if root, _ := cmd.Flags().GetString("root"); root != "" {
		cfg.RootPath = root
	}
	if prefix, _ := cmd.Flags().GetString("prefix"); prefix != "" {
		cfg.Prefix = prefix
	}
	return cfg
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every discoverable service",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := configFromFlags(cmd)
		services, err := shmbus.ListServices(cfg)
		if err != nil {
			return fmt.Errorf("list services: %w", err)
		}
		if len(services) == 0 {
			fmt.Println("No services found")
			return nil
		}

		fmt.Printf("%-30s %-18s %s\n", "NAME", "PATTERN", "HASH")
		for _, s := range services {
			fmt.Printf("%-30s %-18s %s\n", truncate(s.Name, 30), s.Pattern, s.Hash)
		}
		return nil
	},
}

var describeCmd = &cobra.Command{
	Use:   "describe HASH",
	Short: "Show one service's static configuration and attributes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := configFromFlags(cmd)
		info, ok, err := shmbus.GetServiceDetails(cfg, args[0])
		if err != nil {
			return fmt.Errorf("describe service: %w", err)
		}
		if !ok {
			return fmt.Errorf("no service with hash %q", args[0])
		}

		fmt.Printf("Name:    %s\n", info.Name)
		fmt.Printf("Hash:    %s\n", info.Hash)
		fmt.Printf("Pattern: %s\n", info.Pattern)

		switch {
		case info.PubSub != nil:
			p := info.PubSub
			fmt.Printf("Payload: %s\n", p.MessageTypeDetails)
			fmt.Printf("Max publishers:  %d\n", p.MaxPublishers)
			fmt.Printf("Max subscribers: %d\n", p.MaxSubscribers)
			fmt.Printf("Max nodes:       %d\n", p.MaxNodes)
			fmt.Printf("History size:    %d\n", p.HistorySize)
			fmt.Printf("Safe overflow:   %t\n", p.EnableSafeOverflow)
			fmt.Printf("On full queue:   %s\n", p.UnableToDeliverStrategy)
		case info.Event != nil:
			e := info.Event
			fmt.Printf("Max notifiers: %d\n", e.MaxNotifiers)
			fmt.Printf("Max listeners: %d\n", e.MaxListeners)
			fmt.Printf("Max nodes:     %d\n", e.MaxNodes)
			fmt.Printf("Event id max:  %d\n", e.EventIdMaxValue)
			fmt.Printf("Deadline:      %s\n", e.Deadline)
		}

		if info.Attributes.Len() > 0 {
			fmt.Println("Attributes:")
			for _, a := range info.Attributes.All() {
				fmt.Printf("  %s = %s\n", a.Key, a.Value)
			}
		}
		return nil
	},
}

var nodesCmd = &cobra.Command{
	Use:   "nodes",
	Short: "List every node discovered under the deployment root",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := configFromFlags(cmd)
		nodes, err := shmbus.ListNodes(cfg)
		if err != nil {
			return fmt.Errorf("list nodes: %w", err)
		}
		if len(nodes) == 0 {
			fmt.Println("No nodes found")
			return nil
		}

		fmt.Printf("%-24s %-8s %s\n", "NAME", "STATE", "ID")
		for _, n := range nodes {
			fmt.Printf("%-24s %-8s %s\n", truncate(n.Name, 24), n.State, n.ID)
		}
		return nil
	},
}

var rmStaleCmd = &cobra.Command{
	Use:   "rm-stale",
	Short: "Reclaim resources owned by processes that died without closing their ports",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := configFromFlags(cmd)
		reclaimed, err := shmbus.RemoveStaleResources(cfg)
		if err != nil {
			return fmt.Errorf("remove stale resources: %w", err)
		}
		fmt.Printf("Reclaimed %d stale resource(s)\n", reclaimed)
		return nil
	},
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
