package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/stegonotes/stegonotes/internal/chunk"
	"github.com/stegonotes/stegonotes/internal/codec"
)

var (
	useBytes  bool
	escapeOut bool
	pieceSize int
)

var encodeCmd = &cobra.Command{
	Use:   "encode [text]",
	Short: "Encodes text as zero-width characters",
	Long:  "Encodes text (or stdin) as zero-width characters. Without --bytes every character must be in the range 0-255.",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := readInput(cmd, args)
		if err != nil {
			return err
		}

		var out string
		if useBytes {
			out = codec.EncodeBytes([]byte(in))
		} else if out, err = codec.Encode(in); err != nil {
			return err
		}
		return writeOutput(cmd, out)
	},
}

var decodeCmd = &cobra.Command{
	Use:   "decode [encoded]",
	Short: "Decodes zero-width characters back to text",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := readInput(cmd, args)
		if err != nil {
			return err
		}

		var out string
		if useBytes {
			var data []byte
			data, err = codec.DecodeBytes(in)
			out = string(data)
		} else {
			out, err = codec.Decode(in)
		}
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
		return err
	},
}

var packCmd = &cobra.Command{
	Use:   "pack [text]",
	Short: "Packs a long payload into an encoded chunk container",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := readInput(cmd, args)
		if err != nil {
			return err
		}
		out, err := chunk.Pack(in, pieceSize)
		if err != nil {
			return err
		}
		return writeOutput(cmd, out)
	},
}

var unpackCmd = &cobra.Command{
	Use:   "unpack [encoded]",
	Short: "Restores a payload from an encoded chunk container",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := readInput(cmd, args)
		if err != nil {
			return err
		}
		out, err := chunk.Unpack(in)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
		return err
	},
}

func init() {
	encodeCmd.Flags().BoolVar(&useBytes, "bytes", false, "encode the UTF-8 bytes of the input")
	encodeCmd.Flags().BoolVar(&escapeOut, "escape", false, "print the result as an escaped Go string")
	decodeCmd.Flags().BoolVar(&useBytes, "bytes", false, "decode to UTF-8 bytes")
	packCmd.Flags().IntVar(&pieceSize, "size", chunk.DefaultSize, "piece length in characters")
	packCmd.Flags().BoolVar(&escapeOut, "escape", false, "print the result as an escaped Go string")

	rootCmd.AddCommand(encodeCmd, decodeCmd, packCmd, unpackCmd)
}

// readInput joins the arguments, or reads stdin when there are none.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("error reading stdin: %w", err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

func writeOutput(cmd *cobra.Command, out string) error {
	if escapeOut {
		out = strconv.QuoteToASCII(out)
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), out)
	return err
}
