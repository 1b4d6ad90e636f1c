// Package sloghooks reports shopmirror.Hooks events through log/slog.
package sloghooks

import (
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/shopmirror"
	"github.com/unkn0wn-root/shopmirror/internal/util"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	SelfHealEvery   uint64
	SupersededEvery uint64
	// Optional redactor for blob refs. Defaults to a SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	selfHealCtr   atomic.Uint64
	supersededCtr atomic.Uint64
}

var _ shopmirror.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	return util.ShortHash(k)
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) SelfHeal(collection, reason string) {
	if h.l == nil || !sample(h.opts.SelfHealEvery, &h.selfHealCtr) {
		return
	}
	h.l.Debug("shopmirror.self_heal",
		"collection", collection,
		"reason", reason)
}

func (h *Hooks) PublishSuperseded(collection string, gen uint64) {
	if h.l == nil || !sample(h.opts.SupersededEvery, &h.supersededCtr) {
		return
	}
	h.l.Info("shopmirror.publish_superseded",
		"collection", collection,
		"gen", gen)
}

func (h *Hooks) ProviderSetRejected(collection string) {
	if h.l == nil {
		return
	}
	h.l.Warn("shopmirror.provider_set_rejected", "collection", collection)
}

func (h *Hooks) GenStoreError(collection, op string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("shopmirror.genstore_error",
		"collection", collection,
		"op", op,
		"err", err)
}

func (h *Hooks) CacheReadError(collection string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("shopmirror.cache_read_error",
		"collection", collection,
		"err", err)
}

func (h *Hooks) BlobCleanupFailed(ref string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("shopmirror.blob_cleanup_failed",
		"ref", h.redact(ref),
		"err", err)
}

func (h *Hooks) CompensationFailed(saga, step string, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("shopmirror.compensation_failed",
		"saga", saga,
		"step", step,
		"err", err)
}
