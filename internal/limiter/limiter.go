package limiter

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/MrEthical07/goRateLimit/internal/keys"
	"github.com/MrEthical07/goRateLimit/internal/window"
	"github.com/MrEthical07/goRateLimit/store"
)

type headerNames struct {
	limit     string
	remaining string
	reset     string
}

var namesByKind = map[Kind]headerNames{
	KindRateLimit: {"X-Rate-Limit-Limit", "X-Rate-Limit-Remaining", "X-Rate-Limit-Reset"},
	KindQuota:     {"X-Quota-Limit", "X-Quota-Remaining", "X-Quota-Reset"},
}

// Limiter is stateless; one instance may serve any number of goroutines.
type Limiter struct {
	keys keys.Builder
}

// New creates a Limiter using kb to derive counter keys.
func New(kb keys.Builder) *Limiter {
	return &Limiter{keys: kb}
}

// Evaluate runs every tier of p for req against st.
func (l *Limiter) Evaluate(ctx context.Context, st store.Store, p Policy, req Request) Outcome {
	if st == nil {
		return Outcome{
			Decision:     Reject,
			Result:       Result{Failure: true, StatusCode: http.StatusInternalServerError, Message: MessageStoreNotConfigured},
			ExceededTier: -1,
			Err:          ErrStoreNotConfigured,
		}
	}

	var updater store.Updater
	if !p.Async {
		updater, _ = st.(store.Updater)
	}

	names, ok := namesByKind[p.Kind]
	if !ok {
		names = namesByKind[KindRateLimit]
	}

	out := Outcome{Decision: Admit, ExceededTier: -1}
	if p.AddHeaders {
		out.Headers = make([]Header, 0, 3*len(p.Tiers))
	}

	for i, tier := range p.Tiers {
		key := l.keys.Build(req.APIID, req.ApplicationID, req.Path, i)

		rec, exceeded, err := l.evaluateTier(ctx, st, updater, key, tier, req.Now)
		if err != nil {
			return Outcome{
				Decision:     Reject,
				Result:       Result{Failure: true, StatusCode: http.StatusInternalServerError, Message: MessageStoreUnavailable},
				ExceededTier: -1,
				Err:          fmt.Errorf("%w: tier %d: %w", ErrStoreUnavailable, i, err),
			}
		}

		if p.AddHeaders {
			suffix := ""
			if len(p.Tiers) != 1 && !exceeded {
				suffix = "-" + strconv.Itoa(i)
			}
			out.Headers = append(out.Headers,
				Header{Name: names.limit + suffix, Value: strconv.FormatInt(tier.Limit, 10)},
				Header{Name: names.remaining + suffix, Value: strconv.FormatInt(tier.Limit-rec.Counter, 10)},
				Header{Name: names.reset + suffix, Value: strconv.FormatInt(rec.ResetTime/1000, 10)},
			)
		}

		if exceeded {
			out.Decision = Reject
			out.ExceededTier = i
			out.Result = Result{
				Failure:    true,
				StatusCode: http.StatusTooManyRequests,
				Message:    exceededMessage(p.Kind, tier),
			}
			return out
		}
	}

	return out
}

func (l *Limiter) evaluateTier(
	ctx context.Context,
	st store.Store,
	updater store.Updater,
	key string,
	tier Tier,
	now int64,
) (store.Record, bool, error) {
	if updater != nil {
		var exceeded bool
		rec, err := updater.Update(ctx, key, func(r *store.Record) error {
			exceeded = Apply(r, tier, now)
			return nil
		})
		return rec, exceeded, err
	}

	rec, err := st.Get(ctx, key)
	if err != nil {
		return store.Record{}, false, err
	}
	rec.Key = key
	exceeded := Apply(&rec, tier, now)
	if err := st.Save(ctx, rec); err != nil {
		return store.Record{}, false, err
	}
	return rec, exceeded, nil
}

// Apply performs one tier's rollover and admission step on rec and reports
// whether the tier is exceeded. The counter is only incremented on admit; the
// reset time is recomputed either way.
func Apply(rec *store.Record, tier Tier, now int64) bool {
	if now >= window.EndOfWindow(rec.LastRequest, tier.PeriodTime, tier.PeriodTimeUnit) {
		rec.Counter = 0
	}

	exceeded := rec.Counter >= tier.Limit
	if !exceeded {
		rec.Counter++
		rec.LastRequest = now
	}

	rec.ResetTime = window.EndOfPeriod(now, tier.PeriodTime, tier.PeriodTimeUnit)
	return exceeded
}

func exceededMessage(kind Kind, tier Tier) string {
	if kind == KindQuota {
		return fmt.Sprintf("Quota exceeded ! You reach the limit of %d requests per %d %s",
			tier.Limit, tier.PeriodTime, tier.PeriodTimeUnit.Lower())
	}
	return fmt.Sprintf("Rate limit exceeded ! You reach the limit fixed to %d requests per %d %s",
		tier.Limit, tier.PeriodTime, tier.PeriodTimeUnit.Lower())
}
