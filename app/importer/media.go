package importer

import (
	"context"
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/go-git/go-billy/v5"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/AsyncXeNo/zenrenne-backend/app/storage"
	"github.com/AsyncXeNo/zenrenne-backend/models"
)

const (
	imageExt = ".jpg"
	audioExt = ".mp3"
	// maxTrackName matches the audio track name column.
	maxTrackName = 20
)

// AddImages imports the .jpg files of each row's image folder, in name
// order, the first one as main image. Variants that already have images are
// skipped.
func (im *Importer) AddImages(ctx context.Context, rows []FolderRow, src billy.Filesystem) (Summary, error) {
	var s Summary
	for _, row := range rows {
		log := im.log.With().Str("variant", row.FullName).Logger()
		if row.ImageFolder == "" {
			log.Warn().Msg("no image folder")
			s.Skipped++
			continue
		}
		v, ok, err := im.variantFor(ctx, row)
		if err != nil {
			return s, err
		}
		if !ok {
			s.Skipped++
			continue
		}
		has, err := im.media.HasImages(ctx, v.ID)
		if err != nil {
			return s, err
		}
		if has {
			log.Warn().Msg("variant already has images, skipping")
			s.Skipped++
			continue
		}

		names, err := listFiles(src, row.ImageFolder, imageExt)
		if err != nil {
			log.Error().Err(err).Str("folder", row.ImageFolder).Msg("cannot read image folder")
			s.Skipped++
			continue
		}
		if len(names) == 0 {
			log.Warn().Str("folder", row.ImageFolder).Msg("no image files found")
			s.Skipped++
			continue
		}

		for i, name := range names {
			key, err := im.copyFile(src, path.Join(row.ImageFolder, name), storage.DirVariantImages)
			if err != nil {
				return s, err
			}
			img := &models.VariantImage{Image: key, IsMain: i == 0, VariantID: v.ID}
			if err := im.media.AddImage(ctx, img); err != nil {
				im.files.DeleteLater(key)
				return s, fmt.Errorf("image %s for %q: %w", name, row.FullName, err)
			}
			s.Created++
		}
		log.Info().Int("images", len(names)).Msg("images imported")
	}
	return s, nil
}

// AddAudio imports the .mp3 files of each row's audio folder. Track names
// come from the file names; tracks already present by name are kept and
// the per-variant cap stops the import for that variant.
func (im *Importer) AddAudio(ctx context.Context, rows []FolderRow, src billy.Filesystem) (Summary, error) {
	var s Summary
	for _, row := range rows {
		log := im.log.With().Str("variant", row.FullName).Logger()
		if row.AudioFolder == "" {
			log.Warn().Msg("no audio folder")
			s.Skipped++
			continue
		}
		v, ok, err := im.variantFor(ctx, row)
		if err != nil {
			return s, err
		}
		if !ok {
			s.Skipped++
			continue
		}

		names, err := listFiles(src, row.AudioFolder, audioExt)
		if err != nil {
			log.Error().Err(err).Str("folder", row.AudioFolder).Msg("cannot read audio folder")
			s.Skipped++
			continue
		}
		if len(names) == 0 {
			log.Warn().Str("folder", row.AudioFolder).Msg("no audio files found")
			s.Skipped++
			continue
		}

		existing, err := im.media.GetAudioTracks(ctx, &v.ID)
		if err != nil {
			return s, err
		}
		present := make(map[string]bool, len(existing))
		for _, t := range existing {
			present[t.Name] = true
		}

		for _, name := range names {
			title := TrackName(name)
			switch {
			case present[title]:
				s.Existing++
				continue
			case title == "":
				log.Warn().Str("file", name).Msg("track name is blank, skipping")
				s.Skipped++
				continue
			case len(title) > maxTrackName:
				log.Warn().Str("file", name).Msg("track name too long, skipping")
				s.Skipped++
				continue
			case len(present) >= models.MaxAudioTracksPerVariant:
				log.Warn().Str("file", name).Msg("audio track limit reached")
				s.Skipped++
				continue
			}

			key, err := im.copyFile(src, path.Join(row.AudioFolder, name), storage.DirAudioTracks)
			if err != nil {
				return s, err
			}
			track := &models.AudioTrack{Name: title, Track: key, VariantID: v.ID}
			if err := im.media.AddAudioTrack(ctx, track); err != nil {
				im.files.DeleteLater(key)
				return s, fmt.Errorf("track %s for %q: %w", name, row.FullName, err)
			}
			present[title] = true
			s.Created++
			log.Info().Str("track", title).Msg("audio track added")
		}
	}
	return s, nil
}

// TrackName derives a display name from an audio file name:
// "cold_start.mp3" becomes "Cold Start".
func TrackName(filename string) string {
	base := strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	base = strings.TrimSpace(strings.ReplaceAll(base, "_", " "))
	return cases.Title(language.Und).String(base)
}

func (im *Importer) variantFor(ctx context.Context, row FolderRow) (*models.Variant, bool, error) {
	v, err := im.variants.GetByFullName(ctx, row.FullName)
	if errors.Is(err, models.ErrNotFound) {
		im.log.Error().Str("variant", row.FullName).Msg("variant not found")
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (im *Importer) copyFile(src billy.Filesystem, name, dir string) (string, error) {
	f, err := src.Open(name)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return im.files.Save(dir, path.Base(name), f)
}

// listFiles returns the regular files of dir with extension ext, sorted by
// name.
func listFiles(fs billy.Filesystem, dir, ext string) ([]string, error) {
	infos, err := fs.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, info := range infos {
		if info.IsDir() || !strings.EqualFold(path.Ext(info.Name()), ext) {
			continue
		}
		names = append(names, info.Name())
	}
	slices.Sort(names)
	return names, nil
}
