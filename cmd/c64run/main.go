package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/ToolSynth/c64/c64"
	"github.com/ToolSynth/c64/c64basic"
	"github.com/ToolSynth/c64/disassemble"
	"github.com/spf13/cobra"
)

func main() {
	var (
		kernalPath  string
		basicPath   string
		chargenPath string
		modeStr     string
		debug       bool
		frames      int
	)

	rootCmd := &cobra.Command{
		Use:   "c64run",
		Short: "Run a Commodore 64 core for a fixed number of frames",
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := c64.ModePAL
			switch strings.ToUpper(modeStr) {
			case "PAL":
				mode = c64.ModePAL
			case "NTSC":
				mode = c64.ModeNTSC
			default:
				return fmt.Errorf("invalid mode %q: must be PAL or NTSC", modeStr)
			}

			m, err := c64.Init(&c64.Config{
				Mode: mode,
				Roms: c64.RomPaths{
					Kernal:  kernalPath,
					Basic:   basicPath,
					Chargen: chargenPath,
				},
				Debug: debug,
			})
			if err != nil {
				return fmt.Errorf("can't initialize c64: %w", err)
			}

			for i := 0; i < frames; i++ {
				if err := m.Run(); err != nil {
					if debug {
						log.Println(disassemble.Around(m.Bus, m.CPU.PC, 8))
					}
					return fmt.Errorf("frame %d: %w", i, err)
				}
			}
			return nil
		},
	}

	rootCmd.Flags().StringVar(&kernalPath, "kernal", "", "Path to the 8192-byte KERNAL ROM image")
	rootCmd.Flags().StringVar(&basicPath, "basic", "", "Path to the 8192-byte BASIC ROM image")
	rootCmd.Flags().StringVar(&chargenPath, "chargen", "", "Path to the 4096-byte CHARGEN ROM image")
	rootCmd.Flags().StringVar(&modeStr, "mode", "PAL", "Video timing: PAL or NTSC")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "Emit chip debug output while running")
	rootCmd.Flags().IntVar(&frames, "frames", 60, "Number of frames to run before exiting")
	rootCmd.MarkFlagRequired("kernal")
	rootCmd.MarkFlagRequired("basic")
	rootCmd.MarkFlagRequired("chargen")

	rootCmd.AddCommand(newListBasicCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newListBasicCmd builds the list-basic subcommand: it loads the three ROM
// images (needed only so Init can power on a Machine; BASIC tokenization
// itself never touches ROM) plus a raw memory image, pokes the image into
// RAM at $0801, and walks the program with c64basic.List the way a running
// KERNAL's LIST command would.
func newListBasicCmd() *cobra.Command {
	var (
		kernalPath  string
		basicPath   string
		chargenPath string
		imagePath   string
	)

	cmd := &cobra.Command{
		Use:   "list-basic",
		Short: "Tokenize and list a BASIC program image loaded at $0801",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := c64.Init(&c64.Config{
				Mode: c64.ModePAL,
				Roms: c64.RomPaths{Kernal: kernalPath, Basic: basicPath, Chargen: chargenPath},
			})
			if err != nil {
				return fmt.Errorf("can't initialize c64: %w", err)
			}

			data, err := os.ReadFile(imagePath)
			if err != nil {
				return fmt.Errorf("can't load basic image: %w", err)
			}
			for i, b := range data {
				m.Bus.Write(c64basic.LoadAddr+uint16(i), b)
			}

			lines, err := c64basic.ListProgram(c64basic.LoadAddr, m.Bus)
			for _, line := range lines {
				fmt.Println(line)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&kernalPath, "kernal", "", "Path to the 8192-byte KERNAL ROM image")
	cmd.Flags().StringVar(&basicPath, "basic", "", "Path to the 8192-byte BASIC ROM image")
	cmd.Flags().StringVar(&chargenPath, "chargen", "", "Path to the 4096-byte CHARGEN ROM image")
	cmd.Flags().StringVar(&imagePath, "prg", "", "Path to a raw memory image of a tokenized BASIC program, loaded at $0801")
	cmd.MarkFlagRequired("kernal")
	cmd.MarkFlagRequired("basic")
	cmd.MarkFlagRequired("chargen")
	cmd.MarkFlagRequired("prg")

	return cmd
}
