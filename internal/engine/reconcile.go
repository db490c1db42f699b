package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/picklr-io/tfreconcile/internal/inventory"
	"github.com/picklr-io/tfreconcile/internal/ir"
	"github.com/picklr-io/tfreconcile/internal/logging"
)

// DefaultGracePeriod is how long past its expiry a host may keep its slot.
const DefaultGracePeriod = 7 * 24 * time.Hour

// minDepth is the shortest module path that is reconciled. The first two
// segments are the root and the environment module.
const minDepth = 2

// Options tunes the reconciliation rules.
type Options struct {
	// GracePeriod is how long an expired host keeps its slot.
	GracePeriod time.Duration `mapstructure:"grace_period" default:"168h" validate:"min=0"`
	// DefaultTTL is the expiry given to hosts without an expiry date.
	DefaultTTL time.Duration `mapstructure:"default_ttl" default:"8760h" validate:"gt=0"`
	// ProviderPrefix names the data source machine classes are read through.
	ProviderPrefix string `mapstructure:"provider_prefix" default:"data.esscsvhost" validate:"required"`
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		GracePeriod:    DefaultGracePeriod,
		DefaultTTL:     inventory.DefaultTTL,
		ProviderPrefix: DefaultProviderPrefix,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.GracePeriod == 0 {
		o.GracePeriod = d.GracePeriod
	}
	if o.DefaultTTL == 0 {
		o.DefaultTTL = d.DefaultTTL
	}
	if o.ProviderPrefix == "" {
		o.ProviderPrefix = d.ProviderPrefix
	}
	return o
}

// Reconciler re-indexes the resources of a state against an inventory.
type Reconciler struct {
	inv      *inventory.Inventory
	opts     Options
	reporter Reporter
	now      func() time.Time
}

// NewReconciler creates a Reconciler. A nil reporter discards the trail.
func NewReconciler(inv *inventory.Inventory, opts Options, reporter Reporter) *Reconciler {
	if reporter == nil {
		reporter = Discard
	}
	return &Reconciler{
		inv:      inv,
		opts:     opts.withDefaults(),
		reporter: reporter,
		now:      time.Now,
	}
}

// Reconcile rewrites the resource index of every eligible module of st in
// place and returns the decisions taken. On error st may have been partly
// rewritten and must not be persisted.
func (r *Reconciler) Reconcile(st *ir.State) (*Plan, error) {
	now := r.now()
	plan := &Plan{
		Timestamp: now.UTC().Format(time.RFC3339),
		Decisions: []Decision{},
	}
	plan.Summary.Modules = len(st.Modules)

	r.reporter.Begin()
	for _, m := range st.Modules {
		if m.Depth() < minDepth || m.Resources.Len() == 0 {
			plan.Summary.Skipped++
			continue
		}

		done, err := r.reconcileModule(m, now, plan)
		if err != nil {
			return nil, err
		}
		if !done {
			plan.Summary.Skipped++
			continue
		}
		plan.Summary.Reconciled++
	}

	logging.Debug("reconciliation complete",
		"modules", plan.Summary.Modules,
		"reconciled", plan.Summary.Reconciled,
		"stay", plan.Summary.Stay,
		"move", plan.Summary.Move,
	)
	return plan, nil
}

// reconcileModule reports false when the module has no inventory rows and was
// left as it was.
func (r *Reconciler) reconcileModule(m *ir.Module, now time.Time, plan *Plan) (bool, error) {
	path := strings.Join(m.Path[minDepth:], "/")
	rows := r.inv.ForPath(path)
	if len(rows) == 0 {
		logging.Debug("no inventory rows for module, skipping", "module", path)
		return false, nil
	}

	modulePath := strings.Join(m.Path, "/")
	r.reporter.Module(modulePath)

	replacements := ir.NewResources()
	bs := newBuckets()

	for _, key := range m.Resources.Keys() {
		res, _ := m.Resources.Get(key)
		if res.Kind == ir.KindData {
			replacements.Set(key, res)
			plan.Summary.Data++
			continue
		}

		logical := LogicalKey(key)
		class, err := ClassifyWith(logical, r.opts.ProviderPrefix)
		if err != nil {
			return false, err
		}
		sized := inventory.FilterTemplate(rows, class.MachineType)

		if res.AddDependency(class.DataProvider) {
			plan.Summary.Dependencies++
		}

		b := bs.get(logical, len(sized))
		e := entry{from: key, res: res}

		slot, err := r.match(HostID(res.ID()), sized, now)
		if err != nil {
			return false, err
		}
		if slot < 0 || slot >= len(b.stay) || !b.place(slot, e) {
			b.evict(e)
		}
	}

	for _, b := range bs.order {
		n := 0
		emit := func(e entry, action Action) {
			to := IndexedKey(b.logical, n)
			n++
			replacements.Set(to, e.res)

			d := Decision{
				Module: modulePath,
				Action: action,
				Name:   e.res.Name(),
				ID:     e.res.ID(),
				From:   e.from,
				To:     to,
			}
			plan.Decisions = append(plan.Decisions, d)
			if action == ActionStay {
				plan.Summary.Stay++
			} else {
				plan.Summary.Move++
			}
			r.reporter.Decision(d)
		}

		for _, e := range b.stay {
			if e != nil {
				emit(*e, ActionStay)
			}
		}
		for _, e := range b.move {
			emit(e, ActionMove)
		}
	}

	m.Resources = replacements
	r.reporter.EndModule(modulePath)
	return true, nil
}

// match returns the slot of the first row carrying hostID, or -1 when there is
// none or that row is past the grace period. Expiry is evaluated for every row
// scanned, so an invalid date fails the run even when the row does not match.
func (r *Reconciler) match(hostID string, rows []inventory.Row, now time.Time) (int, error) {
	for i, row := range rows {
		expiry, err := row.Expiry(now, r.opts.DefaultTTL)
		if err != nil {
			return -1, fmt.Errorf("reconcile host %s: %w", hostID, err)
		}
		if hostID != row.HostID() {
			continue
		}
		if expiry.Sub(now) < -r.opts.GracePeriod {
			logging.Debug("host expired", "host", hostID, "expires", row.Expires)
			return -1, nil
		}
		return i, nil
	}
	return -1, nil
}
