package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmc31a42/WargameModInstaller/internal/edata"
	"github.com/dmc31a42/WargameModInstaller/internal/texture"
)

func inspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Decode game archives and textures",
	}
	cmd.AddCommand(inspectArchiveCmd())
	cmd.AddCommand(inspectTextureCmd())
	return cmd
}

func inspectArchiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archive <file>",
		Short: "Print the header of a packed archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspectArchive(args[0])
		},
	}
}

func runInspectArchive(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	header, err := edata.ReadHeader(f)
	if err != nil {
		return err
	}

	dictionary := header.DictionaryRegion()
	files := header.FileRegion()
	fmt.Fprintf(os.Stdout, "%s (%d bytes)\n", path, info.Size())
	fmt.Fprintf(os.Stdout, "  Version:     %d\n", header.Version)
	fmt.Fprintf(os.Stdout, "  Checksum v1: %x\n", header.ChecksumV1)
	fmt.Fprintf(os.Stdout, "  Checksum v2: %x\n", header.ChecksumV2)
	fmt.Fprintf(os.Stdout, "  Dictionary:  offset %d, length %d\n", dictionary.Offset, dictionary.Length)
	fmt.Fprintf(os.Stdout, "  Files:       offset %d, length %d\n", files.Offset, files.Length)
	fmt.Fprintf(os.Stdout, "  Padding:     %d\n", header.Padding)

	if err := header.Validate(info.Size()); err != nil {
		return fmt.Errorf("archive header is inconsistent: %w", err)
	}
	return nil
}

func inspectTextureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "texture <file>",
		Short: "Print the layout of a DDS texture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspectTexture(args[0])
		},
	}
}

func runInspectTexture(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	img, err := texture.DecodeDDS(data)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "%s\n", path)
	fmt.Fprintf(os.Stdout, "  Size:   %dx%d\n", img.Width, img.Height)
	fmt.Fprintf(os.Stdout, "  Format: %s\n", img.Format)
	fmt.Fprintf(os.Stdout, "  Mips:   %d\n", img.MipCount)
	for i, level := range img.MipLevels {
		fmt.Fprintf(os.Stdout, "    %2d: %d bytes\n", i, len(level))
	}
	if img.FloorAmbiguous {
		fmt.Fprintln(os.Stdout, "  Pixel format not recognized; mip sizes are a best guess.")
	}
	return nil
}
