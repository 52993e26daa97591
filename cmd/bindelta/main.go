package main

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/OhMyDitzzy/go-bindelta"
)

var log = logrus.New()

func main() {
	if err := newRootCommand().Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "bindelta",
		Short:         "Compute and apply compact binary deltas",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newDiffCommand())
	cmd.AddCommand(newApplyCommand())
	cmd.AddCommand(newInspectCommand())
	cmd.AddCommand(newRecompressCommand())
	return cmd
}

func newDiffCommand() *cobra.Command {
	var (
		output      string
		compression string
		level       int
	)
	cmd := &cobra.Command{
		Use:   "diff <old> <new>",
		Short: "Create a patch that transforms old into new",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := bindelta.ParseCompression(compression)
			if err != nil {
				return err
			}
			old, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			new, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			patch, err := bindelta.DiffOptions(old, new, bindelta.Options{
				Compression: kind,
				Level:       level,
			})
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, patch, 0644); err != nil {
				return err
			}
			log.Infof("wrote %d byte patch (%s, new data %d bytes)", len(patch), kind, len(new))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "patch.bdelta", "output patch file")
	cmd.Flags().StringVarP(&compression, "compression", "c", "none", "compression kind (none, zlib, lzma, lzma2, zstd, bzip2, tamp)")
	cmd.Flags().IntVarP(&level, "level", "l", 0, "codec level, 0 for the codec default")
	return cmd
}

func newApplyCommand() *cobra.Command {
	var (
		output string
		verify string
	)
	cmd := &cobra.Command{
		Use:   "apply <old> <patch>",
		Short: "Reconstruct new data from old data and a patch",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			old, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			patch, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			restored, err := bindelta.Apply(old, patch)
			if err != nil {
				return err
			}
			if verify != "" {
				sum := sha256.Sum256(restored)
				if hex.EncodeToString(sum[:]) != verify {
					return fmt.Errorf("output hash mismatch: got %s", hex.EncodeToString(sum[:]))
				}
			}
			if err := os.WriteFile(output, restored, 0644); err != nil {
				return err
			}
			log.Infof("wrote %d bytes", len(restored))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "restored.bin", "output file")
	cmd.Flags().StringVar(&verify, "verify", "", "expected sha256 of the output, hex encoded")
	return cmd
}

func newInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <patch>",
		Short: "Print a patch's header fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			h, err := bindelta.ReadHeader(patch)
			if err != nil {
				return err
			}
			fmt.Printf("format version: %d\n", h.Version)
			fmt.Printf("compression:    %s\n", h.Compression)
			fmt.Printf("old size:       %d\n", h.OldSize)
			fmt.Printf("new size:       %d\n", h.NewSize)
			fmt.Printf("control stream: %d bytes compressed\n", h.ControlLen)
			fmt.Printf("length stream:  %d bytes compressed\n", h.CopyLenLen)
			fmt.Printf("literal stream: %d bytes compressed\n", h.ExtraLen)
			return nil
		},
	}
}

func newRecompressCommand() *cobra.Command {
	var (
		output      string
		compression string
		level       int
	)
	cmd := &cobra.Command{
		Use:   "recompress <patch>",
		Short: "Re-encode an existing patch under a different compression kind",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := bindelta.ParseCompression(compression)
			if err != nil {
				return err
			}
			patch, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			out, err := bindelta.RecompressOptions(patch, bindelta.Options{
				Compression: kind,
				Level:       level,
			})
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, out, 0644); err != nil {
				return err
			}
			log.Infof("recompressed %d byte patch to %d bytes (%s)", len(patch), len(out), kind)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "patch.bdelta", "output patch file")
	cmd.Flags().StringVarP(&compression, "compression", "c", "none", "target compression kind")
	cmd.Flags().IntVarP(&level, "level", "l", 0, "codec level, 0 for the codec default")
	return cmd
}
