// Package routing implements the Routing Resolver: given a tenant, payment
// type, local instrument, amount and currency, produces an ordered list of
// clearing adapter candidates, highest-priority matching rule first.
package routing

import (
	"context"
	"sort"

	"payorch.backend/internal/domain/entities"
	domainerrors "payorch.backend/internal/domain/errors"
)

// CircuitProbe reports whether an adapter is currently degraded, letting the
// resolver move it to the back of the list without removing it from tenant
// configuration. The probe wired in cmd/server and cmd/worker is the
// clearing circuit-breaker registry, which reports an open circuit only;
// rate-limit saturation and health probes are not consulted.
type CircuitProbe interface {
	IsDegraded(adapterID entities.ClearingAdapterID) bool
}

// Resolver implements steps.RoutingResolver. Candidate pools come from the
// tenant's already-loaded RoutingRules (the infrastructure cache resolves
// and attaches these alongside PaymentTypeConfig); the resolver itself only
// orders and filters them.
type Resolver struct {
	probe CircuitProbe
}

func NewResolver(probe CircuitProbe) *Resolver {
	return &Resolver{probe: probe}
}

// Resolve tries, in order: the explicit tenant rule, the currency/amount
// heuristic, and the tenant default rail. There is no separate payment-type
// default tier; a payment-type-wide default is a routing rule that sets only
// PaymentType. The returned list keeps every matching candidate,
// non-degraded ones first, so the saga can fail over in order.
func (r *Resolver) Resolve(ctx context.Context, tenant *entities.TenantConfig, p *entities.Payment) ([]entities.ClearingAdapterID, error) {
	if tenant == nil {
		return nil, domainerrors.Config("no tenant configuration available for routing", nil)
	}

	candidates := r.explicitRuleCandidates(tenant, p)
	if len(candidates) == 0 {
		candidates = r.heuristicCandidates(tenant, p)
	}
	if len(candidates) == 0 && tenant.DefaultRail != "" {
		candidates = adapterIDsForRail(tenant, tenant.DefaultRail)
	}
	if len(candidates) == 0 {
		return nil, domainerrors.TenantPolicy("no routing rule, heuristic or default resolved a clearing adapter", nil)
	}

	return r.orderByHealth(candidates), nil
}

// explicitRuleCandidates evaluates spec §4.3 rule 1: among the tenant
// routing rules matching (paymentType, localInstrument, amount-band,
// currency), the one with the highest Priority wins, ties keeping
// configuration order. How many fields a rule sets does not rank it.
func (r *Resolver) explicitRuleCandidates(tenant *entities.TenantConfig, p *entities.Payment) []entities.ClearingAdapterID {
	var matches []entities.RoutingRule
	for _, rule := range tenant.RoutingRules {
		if rule.PaymentType != "" && rule.PaymentType != p.PaymentType {
			continue
		}
		if rule.LocalInstrument != "" && rule.LocalInstrument != p.LocalInstrument {
			continue
		}
		if rule.Currency != "" && rule.Currency != p.Amount.Currency {
			continue
		}
		if rule.AmountBand != nil && !withinBand(p.Amount, *rule.AmountBand) {
			continue
		}
		matches = append(matches, rule)
	}
	if len(matches) == 0 {
		return nil
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Priority > matches[j].Priority })
	return matches[0].Candidates
}

func withinBand(amount entities.Money, band entities.AmountBand) bool {
	if band.Min.Currency != "" && amount.CurrencyEquals(band.Min) && amount.Compare(band.Min) < 0 {
		return false
	}
	if band.Max.IsPositive() && amount.CurrencyEquals(band.Max) && amount.Compare(band.Max) > 0 {
		return false
	}
	return true
}

// heuristicCandidates applies the currency/amount heuristic (cross-border ->
// SWIFT, ZAR above R1m -> SAMOS, ZAR INST -> PayShap then RTC, other ZAR ->
// Bankserv) when the payment type is configured for the tenant, and returns
// nil otherwise. The payment type's config carries no default adapter.
func (r *Resolver) heuristicCandidates(tenant *entities.TenantConfig, p *entities.Payment) []entities.ClearingAdapterID {
	cfg, ok := tenant.PaymentType(p.PaymentType)
	if !ok {
		return nil
	}
	_ = cfg // payment-type-level adapter default is carried on routing rules, not here

	const highValueThresholdZAR = "1000000.0000" // R1m, per spec §4.3 example
	highValue, _ := entities.NewMoney(highValueThresholdZAR, "ZAR")

	switch {
	case p.Amount.Currency != "ZAR":
		return adapterIDsForRail(tenant, entities.ClearingRailSWIFT)
	case p.Amount.CurrencyEquals(highValue) && p.Amount.Compare(highValue) > 0:
		return adapterIDsForRail(tenant, entities.ClearingRailSAMOS)
	case p.LocalInstrument == "INST":
		candidates := adapterIDsForRail(tenant, entities.ClearingRailPayShap)
		return append(candidates, adapterIDsForRail(tenant, entities.ClearingRailRTC)...)
	default:
		return adapterIDsForRail(tenant, entities.ClearingRailBankserv)
	}
}

// adapterIDsForRail collects every tenant-configured adapter actually wired
// to rail, consulting each candidate's own ClearingAdapterConfig.Rail rather
// than returning every candidate from every routing rule regardless of what
// rail it talks to — a tenant with an explicit rule for one rail must not
// leak that rule's candidates into an unrelated heuristic match for another
// rail (spec §4.3 rule 3, e.g. cross-border routing to SWIFT). Falls back to
// a rail-tagged placeholder only when the tenant has no adapter configured
// for rail at all.
func adapterIDsForRail(tenant *entities.TenantConfig, rail entities.ClearingRail) []entities.ClearingAdapterID {
	railOf := make(map[entities.ClearingAdapterID]entities.ClearingRail, len(tenant.ClearingAdapterConfigs))
	for _, a := range tenant.ClearingAdapterConfigs {
		railOf[a.AdapterID] = a.Rail
	}

	seen := map[entities.ClearingAdapterID]bool{}
	var out []entities.ClearingAdapterID
	for _, rule := range tenant.RoutingRules {
		for _, c := range rule.Candidates {
			if seen[c] {
				continue
			}
			if r, known := railOf[c]; known && r != rail {
				continue
			}
			seen[c] = true
			out = append(out, c)
		}
	}
	if len(out) > 0 {
		return out
	}
	for _, a := range tenant.ClearingAdapterConfigs {
		if a.Rail == rail {
			return []entities.ClearingAdapterID{a.AdapterID}
		}
	}
	return []entities.ClearingAdapterID{entities.ClearingAdapterID(string(rail) + "-default")}
}

// orderByHealth moves any degraded candidate to the back of the list
// without dropping it, so a saga retry after the circuit recovers can still
// reach it.
func (r *Resolver) orderByHealth(candidates []entities.ClearingAdapterID) []entities.ClearingAdapterID {
	if r.probe == nil {
		return candidates
	}
	healthy := make([]entities.ClearingAdapterID, 0, len(candidates))
	degraded := make([]entities.ClearingAdapterID, 0)
	for _, c := range candidates {
		if r.probe.IsDegraded(c) {
			degraded = append(degraded, c)
		} else {
			healthy = append(healthy, c)
		}
	}
	return append(healthy, degraded...)
}
