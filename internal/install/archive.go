package install

import (
	"fmt"
	"os"

	"github.com/dmc31a42/WargameModInstaller/internal/command"
	"github.com/dmc31a42/WargameModInstaller/internal/edata"
	"github.com/dmc31a42/WargameModInstaller/internal/paths"
	"github.com/dmc31a42/WargameModInstaller/internal/plan"
	"github.com/dmc31a42/WargameModInstaller/internal/store"
	"github.com/dmc31a42/WargameModInstaller/internal/texture"
)

// archiveGroup opens the group's archive once and checks every command
// against it. The archive is never rewritten; commands that pass are recorded
// as verified.
func (r *run) archiveGroup(index int, group plan.ArchiveTargeted) error {
	target := group.Target()
	header, archiveErr := r.openArchive(target)
	if archiveErr == nil {
		r.logger.Debug("archive header read", "target", target, "version", header.Version,
			"dictionary", header.DictionaryRegion(), "files", header.FileRegion())
	}

	for _, cmd := range group.Commands() {
		if err := r.ctx.Err(); err != nil {
			return fmt.Errorf("install interrupted before command %d: %w", cmd.ID(), err)
		}

		outcome := store.Outcome{Target: target.String()}
		if ct, ok := cmd.(command.ContentTargeted); ok {
			outcome.Target = target.String() + ":" + ct.TargetContent().String()
		}

		cmdErr := archiveErr
		if cmdErr == nil {
			cmdErr = r.verifyContent(cmd)
		}
		if cmdErr == nil {
			outcome.Status = store.OutcomeVerified
		}
		if err := r.settle(index, cmd, outcome, cmdErr); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) openArchive(target paths.EntityPath) (*edata.Header, error) {
	file, err := resolve(r.executor.GameDir, target)
	if err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}

	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", target, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("checking archive %s: %w", target, err)
	}
	header, err := edata.ReadHeader(f)
	if err != nil {
		return nil, fmt.Errorf("archive %s: %w", target, err)
	}
	if err := header.Validate(info.Size()); err != nil {
		return nil, fmt.Errorf("archive %s: %w", target, err)
	}
	return header, nil
}

func (r *run) verifyContent(cmd command.Command) error {
	if ct, ok := cmd.(command.ContentTargeted); ok && ct.TargetContent().IsEmpty() {
		return fmt.Errorf("content: %w", ErrEmptyPath)
	}

	switch c := cmd.(type) {
	case *command.ReplaceImage:
		_, err := r.sourceImage(c.SourcePath)
		return err

	case *command.ReplaceImageTile:
		img, err := r.sourceImage(c.SourcePath)
		if err != nil {
			return err
		}
		if c.TileSize <= 0 {
			return fmt.Errorf("%w: tile size %d", ErrTileMismatch, c.TileSize)
		}
		tile := texture.Tile(0, 0, c.TileSize)
		if c.TileAddressed() {
			tile = texture.Tile(*c.Column, *c.Row, c.TileSize)
			if *c.Column < 0 || *c.Row < 0 {
				return fmt.Errorf("%w: tile column %d, row %d", ErrBadPlacement, *c.Column, *c.Row)
			}
		}
		cell := &texture.Image{Width: uint32(c.TileSize), Height: uint32(c.TileSize)}
		if !cell.Contains(texture.Rect{Width: int(img.Width), Height: int(img.Height)}) {
			return fmt.Errorf("%w: source is %dx%d, tile %s", ErrTileMismatch, img.Width, img.Height, tile)
		}
		return nil

	case *command.ReplaceImagePart:
		img, err := r.sourceImage(c.SourcePath)
		if err != nil {
			return err
		}
		part := texture.Rect{X: c.XPosition, Y: c.YPosition, Width: int(img.Width), Height: int(img.Height)}
		if part.X < 0 || part.Y < 0 || part.Width <= 0 || part.Height <= 0 {
			return fmt.Errorf("%w: %s", ErrBadPlacement, part)
		}
		return nil

	case *command.ReplaceContent:
		file, err := resolve(r.executor.ModDir, c.SourcePath)
		if err != nil {
			return fmt.Errorf("source: %w", err)
		}
		if _, err := os.Stat(file); err != nil {
			return fmt.Errorf("%w: %s", ErrMissingSource, c.SourcePath)
		}
		return nil

	case *command.AlterDictionary:
		if len(c.AlteredEntries) == 0 {
			return ErrNoEntries
		}
		return nil

	default:
		return fmt.Errorf("%w: %s", ErrUnsupported, cmd.Kind())
	}
}

func (r *run) sourceImage(source paths.EntityPath) (*texture.Image, error) {
	file, err := resolve(r.executor.ModDir, source)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMissingSource, source)
		}
		return nil, fmt.Errorf("reading %s: %w", source, err)
	}
	img, err := texture.DecodeDDS(data)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", source, err)
	}
	if img.FloorAmbiguous {
		r.logger.Warn("texture format unresolved, mip sizes may be wrong", "source", source, "format", img.Format)
	}
	return img, nil
}
