package transcript

import (
	"context"

	"github.com/TEQST/TEQST-Backend-sub000/internal/conf"
	"github.com/TEQST/TEQST-Backend-sub000/internal/datastore/entities"
	"github.com/TEQST/TEQST-Backend-sub000/internal/errors"
	"github.com/TEQST/TEQST-Backend-sub000/internal/logger"
	"github.com/TEQST/TEQST-Backend-sub000/internal/myaudio"
)

// concat joins the sentence audio in index order into target.
func (r *Regenerator) concat(ctx context.Context, srecs []entities.SentenceRecording, target string) error {
	names := make([]string, len(srecs))
	for i := range srecs {
		names[i] = srecs[i].AudioPath
	}

	switch r.mode {
	case conf.ConcatFFmpeg:
		return r.concatFFmpeg(ctx, names, target)
	case conf.ConcatNative:
		return r.concatNative(ctx, names, target)
	default:
		err := r.concatNative(ctx, names, target)
		if err != nil && errors.Is(err, myaudio.ErrFormatMismatch) && r.canUseFFmpeg() {
			r.log.Info("segment formats differ, falling back to ffmpeg concat", logger.Int("segments", len(names)))
			return r.concatFFmpeg(ctx, names, target)
		}
		return err
	}
}

func (r *Regenerator) concatNative(ctx context.Context, names []string, target string) error {
	segments := make([][]byte, len(names))
	for i, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := r.store.Read(name)
		if err != nil {
			return err
		}
		segments[i] = data
	}
	joined, err := myaudio.ConcatWAVBytes(segments)
	if err != nil {
		return errors.New(err).
			Component("transcript").
			Category(errors.CategoryAudio).
			Context("segments", len(names)).
			Build()
	}
	return r.store.Write(target, joined)
}

func (r *Regenerator) canUseFFmpeg() bool {
	return r.ffmpeg != nil && r.store.OnDisk()
}

func (r *Regenerator) concatFFmpeg(ctx context.Context, names []string, target string) error {
	if r.ffmpeg == nil {
		return errors.Newf("ffmpeg concatenation requested but no ffmpeg is configured").
			Component("transcript").
			Category(errors.CategoryConfiguration).
			Build()
	}
	inputs := make([]string, len(names))
	for i, name := range names {
		exists, err := r.store.Exists(name)
		if err != nil {
			return err
		}
		if !exists {
			return errors.Newf("sentence audio %s is missing", name).
				Component("transcript").
				Category(errors.CategoryNotFound).
				Build()
		}
		local, ok := r.store.LocalPath(name)
		if !ok {
			return errors.Newf("ffmpeg concatenation needs a disk backed artifact store").
				Component("transcript").
				Category(errors.CategoryConfiguration).
				Build()
		}
		inputs[i] = local
	}
	output, ok := r.store.LocalPath(target)
	if !ok {
		return errors.Newf("ffmpeg concatenation needs a disk backed artifact store").
			Component("transcript").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if err := r.store.Write(target, nil); err != nil {
		return err
	}
	return r.ffmpeg.Concat(ctx, inputs, output)
}
