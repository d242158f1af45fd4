package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/vmunix/fetcharr/internal/downloads"
	"github.com/vmunix/fetcharr/internal/media"
	"github.com/vmunix/fetcharr/pkg/release"
)

// maxDeliveryRetries bounds transient-error retries per magnet.
const maxDeliveryRetries = 3

// handleTransferChange runs on engine goroutines.
func (o *Orchestrator) handleTransferChange(in downloads.Info) {
	if in.State != downloads.StateCompleted {
		return
	}
	o.deliverTransfer(in)
}

// deliverTransfer hands a completed transfer to the delivery collaborator.
// Serialized per magnet URI so racing completion events deliver exactly
// once: the loser observes Collected media and no-ops.
func (o *Orchestrator) deliverTransfer(in downloads.Info) {
	lock, _ := o.deliveryLocks.LoadOrStore(in.URI, &sync.Mutex{})
	mu := lock.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()

	related := o.related(in.URI)
	if len(related) == 0 {
		o.log.Warn("completed transfer has no related media", "uri", in.URI)
		return
	}

	var pending []*media.Media
	for _, m := range related {
		if m.State() != media.StateCollected {
			pending = append(pending, m)
		}
	}
	if len(pending) == 0 {
		return
	}

	res := o.deliver.Deliver(in, pending)
	switch {
	case res.OK():
		o.retries.Delete(in.URI)
		resolution, audio := transferQuality(in, pending)
		for _, m := range pending {
			m.Paths = res.Files
		}
		if st := o.syncer.MarkCollected(context.Background(), pending, resolution, audio); !st.OK() {
			o.log.Error("collection push failed after delivery", "uri", in.URI, "error", st.Err())
		}
		if err := o.store.Save(o.lib.All()); err != nil {
			o.log.Error("snapshot save failed after delivery", "uri", in.URI, "error", err)
		}
		if _, err := o.sched.Stop(in.URI, false, true); err != nil {
			o.log.Error("transfer cleanup failed", "uri", in.URI, "error", err)
		}
		o.log.Info("delivered", "uri", in.URI, "media", len(pending), "folder", res.Folder)

	case res.Transient():
		attempt := 1
		if v, ok := o.retries.Load(in.URI); ok {
			attempt = v.(int) + 1
		}
		if attempt > maxDeliveryRetries {
			o.retries.Delete(in.URI)
			o.log.Error("delivery abandoned after retries", "uri", in.URI, "error", res.Err)
			return
		}
		o.retries.Store(in.URI, attempt)
		delay := o.retryDelay(attempt)
		o.log.Warn("delivery failed, will retry", "uri", in.URI, "attempt", attempt, "delay", delay, "error", res.Err)
		time.AfterFunc(delay, func() { o.retryDelivery(in.URI) })

	default:
		o.log.Error("delivery failed permanently", "uri", in.URI, "status", string(res.Status), "error", res.Err)
		if _, err := o.sched.Stop(in.URI, false, false); err != nil {
			o.log.Error("transfer stop failed", "uri", in.URI, "error", err)
		}
	}
}

// retryDelivery re-checks the transfer and re-enters the delivery path.
func (o *Orchestrator) retryDelivery(uri string) {
	in, err := o.sched.Status(uri)
	if err != nil || in == nil {
		o.retries.Delete(uri)
		o.log.Warn("delivery retry dropped, transfer gone", "uri", uri)
		return
	}
	if !in.Complete() {
		o.retries.Delete(uri)
		return
	}
	o.deliverTransfer(*in)
}

// transferQuality infers resolution and audio metadata for the collection
// push from the winning candidate's parsed traits, falling back to the
// transfer name.
func transferQuality(in downloads.Info, related []*media.Media) (string, string) {
	name := in.Name
	for _, m := range related {
		for _, c := range m.Candidates {
			if c.Link == in.URI {
				name = c.Title
				break
			}
		}
	}
	info := release.Parse(name)

	resolution := ""
	if info.Quality != release.QualityUnknown {
		resolution = info.Quality.String()
	}
	audio := ""
	for _, t := range info.Traits {
		switch t {
		case release.TraitAAC, release.TraitDTS, release.TraitDTSHD,
			release.TraitDTSHDMA, release.TraitTrueHD, release.TraitAtmos:
			audio = t.String()
		}
		if audio != "" {
			break
		}
	}
	return resolution, audio
}
