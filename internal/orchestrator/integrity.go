package orchestrator

import (
	"context"
	"time"

	"github.com/vmunix/fetcharr/internal/downloads"
	"github.com/vmunix/fetcharr/internal/scout"
)

// stalledDeadFor is how long a stalled transfer with no swarm left must
// sit unchanged before it counts as broken.
const stalledDeadFor = time.Hour

// oldContentPatience is the floor applied to transfers of content released
// more than six months ago, which legitimately moves slowly.
const oldContentPatience = 24 * time.Hour

// transferTrack is the sweep's memory of one transfer between runs.
type transferTrack struct {
	bytes   int64
	state   downloads.State
	changed time.Time
	broken  int
}

// integritySweep finds transfers that stopped making progress. First
// offense: soft restart. Second: stop and remove the transfer, ban its
// magnet and re-scout the affected media excluding every banned link.
func (o *Orchestrator) integritySweep(ctx context.Context) {
	all, err := o.sched.All()
	if err != nil {
		o.log.Error("integrity sweep: transfer listing failed", "error", err)
		return
	}
	budgetFree, err := o.sched.BudgetFree()
	if err != nil {
		o.log.Error("integrity sweep: budget check failed", "error", err)
		return
	}
	now := o.now()

	o.trackMu.Lock()
	defer o.trackMu.Unlock()

	seen := make(map[string]struct{}, len(all))
	for _, in := range all {
		if in.Complete() {
			continue
		}
		seen[in.URI] = struct{}{}

		tr, ok := o.tracks[in.URI]
		if !ok {
			o.tracks[in.URI] = &transferTrack{bytes: in.Downloaded, state: in.State, changed: now}
			continue
		}
		if tr.bytes != in.Downloaded || tr.state != in.State {
			tr.bytes, tr.state, tr.changed = in.Downloaded, in.State, now
			continue
		}

		if !o.broken(in, tr, budgetFree, now) {
			continue
		}

		tr.broken++
		tr.changed = now
		if tr.broken == 1 {
			o.log.Warn("broken transfer, restarting", "uri", in.URI, "state", string(in.State))
			if err := o.sched.Restart(in.URI, false); err != nil {
				o.log.Error("restart failed", "uri", in.URI, "error", err)
			}
			continue
		}

		o.log.Warn("broken transfer, banning and rescouting", "uri", in.URI, "state", string(in.State))
		o.recoverTransfer(ctx, in)
		delete(o.tracks, in.URI)
	}

	for uri := range o.tracks {
		if _, ok := seen[uri]; !ok {
			delete(o.tracks, uri)
		}
	}
}

// broken decides whether an unchanged transfer has given up: a stalled
// transfer with an empty swarm for an hour, a waiting transfer while the
// budget has room for it, or anything else held past its patience window.
func (o *Orchestrator) broken(in downloads.Info, tr *transferTrack, budgetFree bool, now time.Time) bool {
	unchanged := now.Sub(tr.changed)

	switch in.State {
	case downloads.StateStalled:
		return in.Peers == 0 && in.Seeds == 0 && unchanged >= stalledDeadFor
	case downloads.StateWaiting:
		return budgetFree && unchanged >= o.patience(in)
	case downloads.StateFailed, downloads.StateDownloading, downloads.StateInitializing:
		return unchanged >= o.patience(in)
	default:
		return false
	}
}

// patience scales the base window with progress (the further along, the
// longer we wait before declaring it broken) and widens it for old
// content.
func (o *Orchestrator) patience(in downloads.Info) time.Duration {
	factor := int(in.Progress) / 10
	if factor < 1 {
		factor = 1
	}
	p := o.cfg.IntegrityPatience * time.Duration(factor)

	if o.oldContent(in.URI) && p < oldContentPatience {
		p = oldContentPatience
	}
	return p
}

func (o *Orchestrator) oldContent(uri string) bool {
	for _, m := range o.related(uri) {
		if m.Release != nil && o.now().Sub(*m.Release) > 6*30*24*time.Hour {
			return true
		}
	}
	return false
}

// recoverTransfer removes a twice-broken transfer, bans its magnet on every
// related media and re-scouts them for the next-best untried candidate.
func (o *Orchestrator) recoverTransfer(ctx context.Context, in downloads.Info) {
	if _, err := o.sched.Stop(in.URI, true, true); err != nil {
		o.log.Error("broken transfer stop failed", "uri", in.URI, "error", err)
	}

	for _, m := range o.related(in.URI) {
		m.BanMagnet(in.URI)
		if err := m.SetMagnet("", true); err != nil {
			o.log.Error("magnet reset failed", "media", m.String(), "error", err)
			continue
		}

		res := o.scouter.Scout(ctx, m, true)
		res = scout.RemoveBannedLinks(res, m.IsBanned)
		if res.Status != scout.StatusFound || len(res.Candidates) == 0 {
			o.log.Warn("no replacement candidate", "media", m.String(), "status", string(res.Status))
			continue
		}
		if err := m.AddCandidates(res.Candidates, true); err != nil {
			o.log.Warn("replacement selection failed", "media", m.String(), "error", err)
			continue
		}
		o.startTransfer(m)
	}
}
