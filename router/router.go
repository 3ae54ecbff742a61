// Package router implements the selection engine (C8): given a declarative
// request, it filters registered adapters by capability, estimates cost,
// applies hard constraints, scores the survivors, and returns a
// recommendation plus ranked alternatives and a human-readable
// explanation, grounded on the teacher's worker-dispatch pattern in
// queues/handlers.go (filter eligible handlers, then pick one
// deterministically) generalized from a fixed dispatch table into a
// weighted score.
package router

import (
	"context"
	"fmt"
	"sort"

	"github.com/privacycash/toolkit/adapter"
	"github.com/privacycash/toolkit/internal/logging"
)

// Scoring weights, pinned per §9 Design Notes: the router's weights are
// implementation-defined but MUST be documented. Score = feeWeight*(1 -
// normalizedFee) + latencyWeight*(1 - normalizedLatency) +
// anonymityWeight*normalizedAnonymity + complianceWeight*(compliance
// match) + preferredWeight*(preferred-provider match). Each normalized
// term is in [0,1]; the final score is scaled to an integer in [0,1000]
// for a stable, reproducible ordering.
const (
	weightFee        = 0.35
	weightLatency    = 0.25
	weightAnonymity  = 0.20
	weightCompliance = 0.10
	weightPreferred  = 0.10

	// referenceAnonymitySet caps the normalization denominator for
	// anonymity_set_size so that one very large outlier doesn't flatten the
	// scores of every other candidate.
	referenceAnonymitySet = 10000

	// referenceLatencyMS is the latency normalization denominator used when
	// the request sets no max_latency, chosen to match §5's proof-generation
	// timeout, the slowest class of operation this router scores.
	referenceLatencyMS = 120000
)

// SelectionCriteria is the declarative request handed to Select.
type SelectionCriteria struct {
	PrivacyLevel       adapter.PrivacyLevel
	Token              string
	Amount             float64
	MaxFee             *float64
	MaxLatencyMS       *int64
	RequireCompliance  bool
	PreferredProvider  string
	Sender             string
	Recipient          string
}

// candidateScore is the scored result for one adapter, kept internal until
// ranking and explanation are finalized.
type candidateScore struct {
	providerID string
	estimate   adapter.EstimateResult
	score      int
	reasons    []string
}

// SelectionResult is what Select returns on success.
type SelectionResult struct {
	Recommended  string
	Estimate     adapter.EstimateResult
	Score        int
	Explanation  []string
	Alternatives []string
}

// NoSuitableProvider is returned when no registered adapter survives
// filtering; Reasons maps each provider_id to the first rule that excluded
// it, per §4.8.
type NoSuitableProvider struct {
	Reasons map[string]string
}

func (e *NoSuitableProvider) Error() string {
	return fmt.Sprintf("router: no suitable provider for this request (%d candidates considered)", len(e.Reasons))
}

// compliantProviders names adapters treated as meeting a compliance
// requirement; out of scope to model per-provider compliance metadata in
// the capability matrix, so this is a router-level allowlist.
var compliantProviders = map[string]bool{
	"remote-api": true,
}

// Router holds the registered adapters, keyed by provider_id.
type Router struct {
	adapters map[string]adapter.Adapter
	logger   *logging.Logger
}

// New builds an empty Router.
func New() *Router {
	return &Router{
		adapters: make(map[string]adapter.Adapter),
		logger:   logging.Default(),
	}
}

// Register adds or replaces an adapter under its own provider_id.
func (r *Router) Register(a adapter.Adapter) {
	r.adapters[a.Capabilities().ProviderID] = a
}

// Select runs the filter -> estimate -> hard-constraints -> score -> rank
// pipeline described in §4.8.
func (r *Router) Select(ctx context.Context, criteria SelectionCriteria) (*SelectionResult, error) {
	reasons := make(map[string]string)
	var candidates []candidateScore

	ids := make([]string, 0, len(r.adapters))
	for id := range r.adapters {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		a := r.adapters[id]
		caps := a.Capabilities()

		if !a.IsReady() {
			reasons[id] = "adapter is not ready"
			continue
		}
		if !caps.SupportsPrivacyLevel(criteria.PrivacyLevel) {
			reasons[id] = fmt.Sprintf("does not support privacy level %q", criteria.PrivacyLevel)
			continue
		}
		if !caps.SupportsToken(criteria.Token) {
			reasons[id] = fmt.Sprintf("does not support token %q", criteria.Token)
			continue
		}
		if fees, ok := caps.Fees[criteria.Token]; ok {
			if criteria.Amount < fees.MinAmount {
				reasons[id] = "amount below provider minimum"
				continue
			}
			if fees.MaxAmount != nil && criteria.Amount > *fees.MaxAmount {
				reasons[id] = "amount above provider maximum"
				continue
			}
		}

		est, err := a.Estimate(ctx, adapter.OperationRequest{
			Token:        criteria.Token,
			Amount:       criteria.Amount,
			Sender:       criteria.Sender,
			Recipient:    criteria.Recipient,
			PrivacyLevel: criteria.PrivacyLevel,
		})
		if err != nil {
			reasons[id] = fmt.Sprintf("estimate failed: %v", err)
			continue
		}

		if criteria.MaxFee != nil && est.Fee > *criteria.MaxFee {
			reasons[id] = fmt.Sprintf("fee %.4f exceeds max_fee %.4f", est.Fee, *criteria.MaxFee)
			continue
		}
		if criteria.MaxLatencyMS != nil && est.LatencyMS > *criteria.MaxLatencyMS {
			reasons[id] = fmt.Sprintf("latency %dms exceeds max_latency %dms", est.LatencyMS, *criteria.MaxLatencyMS)
			continue
		}
		if len(est.Warnings) > 0 {
			reasons[id] = fmt.Sprintf("blocking warning: %s", est.Warnings[0])
			continue
		}
		if criteria.RequireCompliance && !compliantProviders[id] {
			reasons[id] = "does not meet compliance requirement"
			continue
		}

		score, candidateReasons := scoreCandidate(id, caps, est, criteria)
		candidates = append(candidates, candidateScore{
			providerID: id,
			estimate:   est,
			score:      score,
			reasons:    candidateReasons,
		})
	}

	if len(candidates) == 0 {
		return nil, &NoSuitableProvider{Reasons: reasons}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].providerID < candidates[j].providerID
	})

	best := candidates[0]
	alternatives := make([]string, 0, len(candidates)-1)
	for _, c := range candidates[1:] {
		alternatives = append(alternatives, c.providerID)
	}

	return &SelectionResult{
		Recommended:  best.providerID,
		Estimate:     best.estimate,
		Score:        best.score,
		Explanation:  best.reasons,
		Alternatives: alternatives,
	}, nil
}

func scoreCandidate(id string, caps adapter.CapabilityMatrix, est adapter.EstimateResult, criteria SelectionCriteria) (int, []string) {
	reasons := []string{
		fmt.Sprintf("supports %s", criteria.PrivacyLevel),
		fmt.Sprintf("supports %s", criteria.Token),
	}

	// Normalize fee against the request's own max_fee where given. Without a
	// max_fee there is no token-agnostic scale to normalize against, so the
	// normalized fee is 1 for every candidate with a non-zero fee (0 for a
	// zero fee) and the ranking falls back to latency/anonymity/compliance/
	// preferred.
	feeCeiling := est.Fee
	if criteria.MaxFee != nil && *criteria.MaxFee > 0 {
		feeCeiling = *criteria.MaxFee
	}
	normalizedFee := 0.0
	if feeCeiling > 0 {
		normalizedFee = est.Fee / feeCeiling
	}

	latencyCeiling := float64(referenceLatencyMS)
	if criteria.MaxLatencyMS != nil && *criteria.MaxLatencyMS > 0 {
		latencyCeiling = float64(*criteria.MaxLatencyMS)
	}
	normalizedLatency := float64(est.LatencyMS) / latencyCeiling
	if normalizedLatency > 1 {
		normalizedLatency = 1
	}

	normalizedAnonymity := 0.0
	if est.AnonymitySetSize != nil {
		normalizedAnonymity = float64(*est.AnonymitySetSize) / float64(referenceAnonymitySet)
		if normalizedAnonymity > 1 {
			normalizedAnonymity = 1
		}
		reasons = append(reasons, fmt.Sprintf("anonymity set size %d", *est.AnonymitySetSize))
	}

	complianceMatch := 0.0
	if criteria.RequireCompliance && compliantProviders[id] {
		complianceMatch = 1.0
		reasons = append(reasons, "meets compliance requirement")
	}

	preferredMatch := 0.0
	if criteria.PreferredProvider != "" && criteria.PreferredProvider == id {
		preferredMatch = 1.0
		reasons = append(reasons, "matches preferred provider")
	}

	raw := weightFee*(1-normalizedFee) +
		weightLatency*(1-normalizedLatency) +
		weightAnonymity*normalizedAnonymity +
		weightCompliance*complianceMatch +
		weightPreferred*preferredMatch

	reasons = append(reasons, fmt.Sprintf("fee=%.4f latency=%dms", est.Fee, est.LatencyMS))
	return int(raw * 1000), reasons
}
